package constants

import "time"

const (
	// DefaultViewingLength is assumed when an appointment has no end time.
	DefaultViewingLength = time.Hour

	VerificationCodeTTL        = 10 * time.Minute
	VerificationCodeMaxAttempt = 5
	VerificationCodeDigits     = 6

	// Replacement agents are only proposed within this radius of the property.
	ReplacementAgentRadiusMiles = 100

	NotificationQueueSize = 256
)

const (
	CronSlotGeneration = "5 0 * * *"
	CronApprovalSweep  = "@every 10m"
	CronCodeCleanup    = "@every 1h"
)
