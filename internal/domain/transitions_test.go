package domain

import "testing"

func TestLeadTransitionsAreMonotonicForward(t *testing.T) {
	if !CanTransitionLead(LeadNew, LeadArchived) {
		t.Fatalf("expected NEW -> ARCHIVED_NO_RESPONSE to be allowed")
	}
	if CanTransitionLead(LeadArchived, LeadNew) {
		t.Fatalf("archived lead must not move backwards")
	}
	if CanTransitionLead(LeadInterestConfirmed, LeadIncomplete) {
		t.Fatalf("confirmed lead must not move backwards")
	}
}

func TestContractCancelledIsTerminal(t *testing.T) {
	for _, to := range []ContractStatus{ContractDrafting, ContractInReview, ContractSent, ContractSigned} {
		if CanTransitionContract(ContractCancelled, to) {
			t.Fatalf("cancelled contract allowed transition to %s", to)
		}
	}
	if !CanTransitionContract(ContractSigned, ContractCancelled) {
		t.Fatalf("signed contract must be cancellable for non-payment")
	}
	if IsTerminalContract(ContractSigned) || !IsTerminalContract(ContractCancelled) {
		t.Fatalf("only CANCELLED is terminal")
	}
}

func TestPaymentCancelIsAllowedFromDunnableStatuses(t *testing.T) {
	for _, from := range DunnablePaymentStatuses {
		if !CanTransitionPayment(from, PaymentCancelled) {
			t.Fatalf("expected %s -> CANCELLED to be allowed", from)
		}
	}
	if CanTransitionPayment(PaymentCancelled, PaymentPending) {
		t.Fatalf("cancelled payment must stay cancelled")
	}
}

func TestCaseMachineForwardPath(t *testing.T) {
	path := []CaseStatus{
		CaseContatoInicial,
		CaseAguardandoDocumentos,
		CaseDocumentosConferencia,
		CaseProntoSubmissao,
		CaseSubmetido,
		CaseEmAcompanhamento,
		CaseAprovadoInternamente,
		CaseAgendarHuellas,
		CaseAguardandoCitaHuellas,
		CaseHuellasRealizado,
		CaseDisponivelRetiradaTIE,
		CaseTIERetirado,
		CaseEncerradoAprovado,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransitionCase(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}
}

func TestCaseMachineRequirementLoop(t *testing.T) {
	if !CanTransitionCase(CaseEmAcompanhamento, CaseExigenciaOrgao) {
		t.Fatalf("expected EM_ACOMPANHAMENTO -> EXIGENCIA_ORGAO")
	}
	if !CanTransitionCase(CaseExigenciaOrgao, CaseEmAcompanhamento) {
		t.Fatalf("expected EXIGENCIA_ORGAO -> EM_ACOMPANHAMENTO")
	}
}

func TestCaseDenialReachableFromPostSubmissionStates(t *testing.T) {
	postSubmission := []CaseStatus{
		CaseSubmetido, CaseEmAcompanhamento, CaseExigenciaOrgao,
		CaseAprovadoInternamente, CaseAgendarHuellas, CaseAguardandoCitaHuellas,
		CaseHuellasRealizado, CaseDisponivelRetiradaTIE,
	}
	for _, from := range postSubmission {
		if !CanTransitionCase(from, CaseEncerradoNegado) {
			t.Fatalf("expected %s -> ENCERRADO_NEGADO to be allowed", from)
		}
	}
	if CanTransitionCase(CaseContatoInicial, CaseEncerradoNegado) {
		t.Fatalf("denial must not be reachable before submission")
	}
}

func TestSectorForInterestFallsBackToGeneral(t *testing.T) {
	if got := SectorForInterest("residencia"); got != "RESIDENCIA" {
		t.Fatalf("expected RESIDENCIA, got %s", got)
	}
	if got := SectorForInterest("algo-desconhecido"); got != "GERAL" {
		t.Fatalf("expected GERAL fallback, got %s", got)
	}
}

func TestRequirementExtensionLoopIsExpressible(t *testing.T) {
	if !CanTransitionRequirement(RequirementOpen, RequirementInExtension) {
		t.Fatalf("expected OPEN -> IN_EXTENSION")
	}
	if !CanTransitionRequirement(RequirementInExtension, RequirementExtended) {
		t.Fatalf("expected IN_EXTENSION -> EXTENDED")
	}
	if !CanTransitionRequirement(RequirementExtended, RequirementInExtension) {
		t.Fatalf("expected EXTENDED -> IN_EXTENSION (repeat extension)")
	}
}
