package types

import "testing"

func TestApplyStat(t *testing.T) {
	cases := []struct {
		name  string
		kind  StatKind
		delta int64
		check func(s UserStats) bool
	}{
		{"conversation_default_delta", StatKindConversation, 0, func(s UserStats) bool { return s.Conversations == 1 }},
		{"message", StatKindMessage, 3, func(s UserStats) bool { return s.Messages == 3 }},
		{"voice", StatKindVoice, 1, func(s UserStats) bool { return s.VoiceInteractions == 1 }},
		{"usage_minutes", StatKindUsage, 15, func(s UserStats) bool { return s.TotalUsageTime == 15 }},
		{"unknown_kind_noop", StatKind("bogus"), 5, func(s UserStats) bool { return s == UserStats{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s UserStats
			s.ApplyStat(tc.kind, tc.delta)
			if !tc.check(s) {
				t.Fatalf("stats=%+v after ApplyStat(%q, %d)", s, tc.kind, tc.delta)
			}
		})
	}
}

func TestApplyStatOnlyTouchesOneCounter(t *testing.T) {
	var s UserStats
	s.ApplyStat(StatKindMessage, 2)
	if s.Conversations != 0 || s.VoiceInteractions != 0 || s.TotalUsageTime != 0 {
		t.Fatalf("other counters moved: %+v", s)
	}
}

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences()
	if p.Voice.Speed < 0.5 || p.Voice.Speed > 2.0 {
		t.Fatalf("default voice speed %v out of range", p.Voice.Speed)
	}
	if p.Voice.Volume < 0 || p.Voice.Volume > 1 {
		t.Fatalf("default voice volume %v out of range", p.Voice.Volume)
	}
	if p.AssistantModel != AssistantModelHybrid {
		t.Fatalf("default assistant model %q", p.AssistantModel)
	}
}
