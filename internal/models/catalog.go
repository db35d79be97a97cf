package models

import "slices"

const (
	PersonalityProfessional = "professional"
	PersonalityFriendly     = "friendly"
	PersonalityFormal       = "formal"
)

const (
	TriggerPoundKey = "pound_key"
	TriggerKeyword  = "keyword"
)

const DefaultVoice = "alloy"

var Industries = []string{
	"HVAC",
	"Plumbing",
	"Roofing",
	"Electrical",
	"Construction",
	"Landscaping",
	"Fencing",
	"Other",
}

var Personalities = []string{
	PersonalityProfessional,
	PersonalityFriendly,
	PersonalityFormal,
}

var Voices = []string{
	"alloy",
	"echo",
	"fable",
	"nova",
	"onyx",
	"shimmer",
}

var TriggerMethods = []string{
	TriggerPoundKey,
	TriggerKeyword,
}

var USStateCodes = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

func IsKnownVoice(voice string) bool {
	return slices.Contains(Voices, voice)
}
