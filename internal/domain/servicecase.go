package domain

import (
	"time"

	"github.com/google/uuid"
)

// CaseStatus is the technical status of a service case. The machine is
// linear with branches: the only cycle is the bounded requirement
// extension loop between EM_ACOMPANHAMENTO and EXIGENCIA_ORGAO.
type CaseStatus string

const (
	CaseContatoInicial        CaseStatus = "CONTATO_INICIAL"
	CaseAguardandoDocumentos  CaseStatus = "AGUARDANDO_DOCUMENTOS"
	CaseDocumentosConferencia CaseStatus = "DOCUMENTOS_EM_CONFERENCIA"
	CaseProntoSubmissao       CaseStatus = "PRONTO_PARA_SUBMISSAO"
	CaseSubmetido             CaseStatus = "SUBMETIDO"
	CaseEmAcompanhamento      CaseStatus = "EM_ACOMPANHAMENTO"
	CaseExigenciaOrgao        CaseStatus = "EXIGENCIA_ORGAO"
	CaseAprovadoInternamente  CaseStatus = "APROVADO_INTERNAMENTE"
	CaseAgendarHuellas        CaseStatus = "AGENDAR_HUELLAS"
	CaseAguardandoCitaHuellas CaseStatus = "AGUARDANDO_CITA_HUELLAS"
	CaseHuellasRealizado      CaseStatus = "HUELLAS_REALIZADO"
	CaseDisponivelRetiradaTIE CaseStatus = "DISPONIVEL_RETIRADA_TIE"
	CaseTIERetirado           CaseStatus = "TIE_RETIRADO"
	CaseEncerradoAprovado     CaseStatus = "ENCERRADO_APROVADO"
	CaseEncerradoNegado       CaseStatus = "ENCERRADO_NEGADO"
)

var caseTransitions = map[CaseStatus]map[CaseStatus]bool{
	CaseContatoInicial:        {CaseAguardandoDocumentos: true},
	CaseAguardandoDocumentos:  {CaseDocumentosConferencia: true},
	CaseDocumentosConferencia: {CaseProntoSubmissao: true, CaseAguardandoDocumentos: true},
	CaseProntoSubmissao:       {CaseSubmetido: true},
	CaseSubmetido:             {CaseEmAcompanhamento: true, CaseEncerradoNegado: true},
	CaseEmAcompanhamento:      {CaseExigenciaOrgao: true, CaseAprovadoInternamente: true, CaseEncerradoNegado: true},
	CaseExigenciaOrgao:        {CaseEmAcompanhamento: true, CaseEncerradoNegado: true},
	CaseAprovadoInternamente:  {CaseAgendarHuellas: true, CaseEncerradoNegado: true},
	CaseAgendarHuellas:        {CaseAguardandoCitaHuellas: true, CaseEncerradoNegado: true},
	CaseAguardandoCitaHuellas: {CaseHuellasRealizado: true, CaseEncerradoNegado: true},
	CaseHuellasRealizado:      {CaseDisponivelRetiradaTIE: true, CaseEncerradoNegado: true},
	CaseDisponivelRetiradaTIE: {CaseTIERetirado: true, CaseEncerradoNegado: true},
	CaseTIERetirado:           {CaseEncerradoAprovado: true},
	CaseEncerradoAprovado:     {},
	CaseEncerradoNegado:       {},
}

// CanTransitionCase reports whether a case may move between technical statuses.
func CanTransitionCase(from, to CaseStatus) bool {
	nexts, ok := caseTransitions[from]
	if !ok {
		return false
	}
	return nexts[to]
}

// IsTerminalCase returns true for the two closed states.
func IsTerminalCase(status CaseStatus) bool {
	return status == CaseEncerradoAprovado || status == CaseEncerradoNegado
}

// CasePriority selects between the normal and urgent reminder cadences.
type CasePriority string

const (
	PriorityNormal CasePriority = "NORMAL"
	PriorityUrgent CasePriority = "URGENTE"
)

// ServiceCase is the technical handling of a won opportunity.
type ServiceCase struct {
	ID              uuid.UUID
	ContractID      uuid.UUID
	Sector          string
	Status          CaseStatus
	Priority        CasePriority
	AssignedUserID  *uuid.UUID
	ClientName      string
	ClientPhone     string
	LastTouchedAt   time.Time
	HuellasAt       *time.Time
	TIEAvailableAt  *time.Time
	TIEPickedUpAt   *time.Time
	OnboardingDone  bool
	CreatedAt       time.Time
}

// sectorByInterest maps a lead's service interest onto the sector that
// seeds a new case. Unknown interests route to the general desk.
var sectorByInterest = map[string]string{
	"residencia":    "RESIDENCIA",
	"nacionalidade": "NACIONALIDADE",
	"estudos":       "ESTUDANTE",
	"trabalho":      "TRABALHO",
	"reagrupacao":   "FAMILIAR",
}

// SectorForInterest resolves the case sector for a service interest.
func SectorForInterest(interest string) string {
	if sector, ok := sectorByInterest[interest]; ok {
		return sector
	}
	return "GERAL"
}
