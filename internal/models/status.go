package models

import "lead-crm/internal/temperature"

const (
	StatusHot      = temperature.Hot
	StatusWarm     = temperature.Warm
	StatusCold     = temperature.Cold
	StatusLost     = temperature.Lost
	StatusEnrolled = temperature.Enrolled
)

const (
	StageContact   = "contato"
	StageInterest  = "interesse"
	StageExam      = "prova"
	StageEnrolment = "matricula"
)

const (
	RoleAdmin       = "Administrador"
	RoleDirector    = "Diretor"
	RoleCoordinator = "Coordenador"
	RoleHQ          = "QG"
	RoleSales       = "Comercial"
)

const DefaultCourseType = "Presencial"

// Statuses lists lead statuses in display order.
var Statuses = []string{StatusHot, StatusWarm, StatusCold, StatusLost, StatusEnrolled}

// Stages lists funnel stages in funnel order.
var Stages = []string{StageContact, StageInterest, StageExam, StageEnrolment}

var Roles = []string{RoleAdmin, RoleDirector, RoleCoordinator, RoleHQ, RoleSales}

// SalesRoles are the roles whose owned leads count as salesperson conversions.
var SalesRoles = []string{RoleSales, RoleHQ}

var CourseTypes = []string{"Pós-graduação", "EAD", "Presencial"}

var InteractionTypes = []string{"ligacao", "email", "whatsapp", "reuniao", "visita", "cadastro"}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func IsValidStatus(s string) bool          { return contains(Statuses, s) }
func IsValidStage(s string) bool           { return contains(Stages, s) }
func IsValidRole(s string) bool            { return contains(Roles, s) }
func IsValidInteractionType(s string) bool { return contains(InteractionTypes, s) }
func IsValidCourseType(s string) bool      { return contains(CourseTypes, s) }

// StatusDisplayInfo contains display information for a lead status
type StatusDisplayInfo struct {
	DisplayName string
	Emoji       string
	BgColor     string
	TextColor   string
	BorderColor string
}

// GetStatusDisplayInfo returns display information for a given status
func GetStatusDisplayInfo(status string) StatusDisplayInfo {
	statusMap := map[string]StatusDisplayInfo{
		StatusHot: {
			DisplayName: "Quente",
			Emoji:       "🔥",
			BgColor:     "#FEE2E2",
			TextColor:   "#7F1D1D",
			BorderColor: "#EF4444",
		},
		StatusWarm: {
			DisplayName: "Morno",
			Emoji:       "🟡",
			BgColor:     "#FEF9C3",
			TextColor:   "#713F12",
			BorderColor: "#EAB308",
		},
		StatusCold: {
			DisplayName: "Frio",
			Emoji:       "🧊",
			BgColor:     "#CFFAFE",
			TextColor:   "#164E63",
			BorderColor: "#06B6D4",
		},
		StatusLost: {
			DisplayName: "Perdido",
			BgColor:     "#F5F5F5",
			TextColor:   "#666",
			BorderColor: "#8C8C8C",
		},
		StatusEnrolled: {
			DisplayName: "Matriculado",
			BgColor:     "#DCFCE7",
			TextColor:   "#14532D",
			BorderColor: "#22C55E",
		},
	}

	if info, ok := statusMap[status]; ok {
		return info
	}

	return StatusDisplayInfo{
		DisplayName: status,
		BgColor:     "#E6E6E6",
		TextColor:   "#333",
		BorderColor: "#8C8C8C",
	}
}

// StageDisplayName returns the label used for a funnel stage.
func StageDisplayName(stage string) string {
	switch stage {
	case StageContact:
		return "Contato"
	case StageInterest:
		return "Interesse"
	case StageExam:
		return "Prova"
	case StageEnrolment:
		return "Matrícula"
	}
	return stage
}

// InteractionDisplayName returns the label used for an interaction type.
func InteractionDisplayName(kind string) string {
	switch kind {
	case "ligacao":
		return "Ligação"
	case "email":
		return "E-mail"
	case "whatsapp":
		return "WhatsApp"
	case "reuniao":
		return "Reunião"
	case "visita":
		return "Visita"
	case "cadastro":
		return "Novo lead"
	}
	return kind
}
