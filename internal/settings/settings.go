// Package settings resolves named SLA thresholds from the flat key/value
// settings table, falling back to compiled-in defaults. The result is an
// immutable snapshot resolved once per sweep and passed explicitly into
// every scanner, never ambient global state.
package settings

import (
	"context"
	"strconv"
	"strings"
	"time"

	"tramita_backend/platform/logger"
)

// Threshold keys stored in the workflow_settings table.
const (
	KeyLeadWelcomeMinutes        = "lead_welcome_minutes"
	KeyLeadReengagementHours     = "lead_reengagement_hours"
	KeyLeadReengagementQuietHrs  = "lead_reengagement_quiet_hours"
	KeyLeadArchiveHours          = "lead_archive_hours"
	KeyContractCancelDays        = "contract_cancel_days"
	KeyPaymentDueHourStart       = "payment_due_hour_start"
	KeyPaymentDueHourEnd         = "payment_due_hour_end"
	KeyPaymentCancelDays         = "payment_cancel_days"
	KeyDocReminderDays           = "doc_reminder_days"
	KeyDocUrgentHours            = "doc_urgent_hours"
	KeyRequirementExtensionDays  = "requirement_extension_days"
	KeyRequirementMaxExtensions  = "requirement_max_extensions"
	KeyRequirementHardCap        = "requirement_extension_hard_cap"
	KeyTIEPickupReminderDays     = "tie_pickup_reminder_days"
	KeyOnboardingReminderDays    = "onboarding_reminder_days"
)

// defaults are the compiled-in values used when a key is absent or malformed.
var defaults = map[string]int{
	KeyLeadWelcomeMinutes:       15,
	KeyLeadReengagementHours:    72,
	KeyLeadReengagementQuietHrs: 24,
	KeyLeadArchiveHours:         168,
	KeyContractCancelDays:       7,
	KeyPaymentDueHourStart:      9,
	KeyPaymentDueHourEnd:        10,
	KeyPaymentCancelDays:        8,
	KeyDocReminderDays:          5,
	KeyDocUrgentHours:           24,
	KeyRequirementExtensionDays: 5,
	KeyRequirementMaxExtensions: 3,
	KeyRequirementHardCap:       0,
	KeyTIEPickupReminderDays:    3,
	KeyOnboardingReminderDays:   2,
}

// Reader reads the stored key/value settings table.
type Reader interface {
	ReadSettings(ctx context.Context, keys []string) (map[string]string, error)
}

// Resolver resolves threshold keys against the store with defaults.
type Resolver struct {
	reader Reader
	log    *logger.Logger
}

// NewResolver creates a resolver over the given settings reader.
func NewResolver(reader Reader, log *logger.Logger) *Resolver {
	return &Resolver{reader: reader, log: log}
}

// Resolve returns an integer value for each requested key: the stored value
// when present and parseable, the compiled-in default otherwise. A store
// read failure degrades to all defaults; resolution itself never fails.
func (r *Resolver) Resolve(ctx context.Context, keys []string) map[string]int {
	stored := map[string]string{}
	if r.reader != nil {
		values, err := r.reader.ReadSettings(ctx, keys)
		if err != nil {
			r.log.Warn("settings read failed, using defaults", "error", err)
		} else {
			stored = values
		}
	}

	resolved := make(map[string]int, len(keys))
	for _, key := range keys {
		resolved[key] = r.resolveOne(key, stored)
	}
	return resolved
}

func (r *Resolver) resolveOne(key string, stored map[string]string) int {
	fallback := defaults[key]

	raw, ok := stored[key]
	if !ok {
		return fallback
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		r.log.SettingDefaulted(key, raw)
		return fallback
	}
	return value
}

// AllKeys lists every threshold key the engine resolves at sweep start.
func AllKeys() []string {
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	return keys
}

// Snapshot is the immutable per-sweep view of all thresholds.
type Snapshot struct {
	WelcomeDelay          time.Duration
	ReengagementAfter     time.Duration
	ReengagementQuiet     time.Duration
	ArchiveAfter          time.Duration
	ContractCancelAfter   time.Duration
	DueHourStart          int
	DueHourEnd            int
	PaymentCancelAfter    time.Duration
	DocCadenceNormal      time.Duration
	DocCadenceUrgent      time.Duration
	ExtensionIncrement    time.Duration
	MaxExtensions         int
	ExtensionHardCap      bool
	TIEPickupCadence      time.Duration
	OnboardingCadence     time.Duration
}

// Load resolves every threshold into a snapshot. Called once per sweep.
func (r *Resolver) Load(ctx context.Context) Snapshot {
	return buildSnapshot(r.Resolve(ctx, AllKeys()))
}

// Defaults returns a snapshot built purely from compiled-in values.
// Useful for tests and for callers without a settings store.
func Defaults() Snapshot {
	values := make(map[string]int, len(defaults))
	for key, value := range defaults {
		values[key] = value
	}
	return buildSnapshot(values)
}

func buildSnapshot(values map[string]int) Snapshot {
	return Snapshot{
		WelcomeDelay:        time.Duration(values[KeyLeadWelcomeMinutes]) * time.Minute,
		ReengagementAfter:   time.Duration(values[KeyLeadReengagementHours]) * time.Hour,
		ReengagementQuiet:   time.Duration(values[KeyLeadReengagementQuietHrs]) * time.Hour,
		ArchiveAfter:        time.Duration(values[KeyLeadArchiveHours]) * time.Hour,
		ContractCancelAfter: time.Duration(values[KeyContractCancelDays]) * 24 * time.Hour,
		DueHourStart:        values[KeyPaymentDueHourStart],
		DueHourEnd:          values[KeyPaymentDueHourEnd],
		PaymentCancelAfter:  time.Duration(values[KeyPaymentCancelDays]) * 24 * time.Hour,
		DocCadenceNormal:    time.Duration(values[KeyDocReminderDays]) * 24 * time.Hour,
		DocCadenceUrgent:    time.Duration(values[KeyDocUrgentHours]) * time.Hour,
		ExtensionIncrement:  time.Duration(values[KeyRequirementExtensionDays]) * 24 * time.Hour,
		MaxExtensions:       values[KeyRequirementMaxExtensions],
		ExtensionHardCap:    values[KeyRequirementHardCap] != 0,
		TIEPickupCadence:    time.Duration(values[KeyTIEPickupReminderDays]) * 24 * time.Hour,
		OnboardingCadence:   time.Duration(values[KeyOnboardingReminderDays]) * 24 * time.Hour,
	}
}
