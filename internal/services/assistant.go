package services

import (
	"context"
	"strings"

	"github.com/yungbote/carepulse-backend/internal/platform/logger"
	"github.com/yungbote/carepulse-backend/internal/platform/openai"
)

const (
	IntentTaskStatus     = "task_status"
	IntentMomentFeedback = "moment_feedback"
	IntentSchedule       = "schedule"
	IntentHelp           = "help"
	IntentUnknown        = "unknown"
)

type AssistantReply struct {
	Intent string `json:"intent"`
	Reply  string `json:"reply"`
}

type AssistantService interface {
	Ask(ctx context.Context, question string) AssistantReply
}

// IntentDetector is the subset of the LLM client the assistant needs.
type IntentDetector interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

var _ IntentDetector = (openai.Client)(nil)

var cannedReplies = map[string]string{
	IntentTaskStatus:     "You can see every open and overdue task on the Tasks page. Open a task to change its due date or mark it complete.",
	IntentMomentFeedback: "Share a moment by uploading a photo or short video from the Moments page. We'll read it and add a sentiment score.",
	IntentSchedule:       "Tasks send a reminder before they are due and are flagged overdue once the due time passes. Update the due date to reschedule.",
	IntentHelp:           "I can help with tasks, schedules and moment uploads. Try asking \"which tasks are overdue?\" or \"how do I share a moment?\"",
	IntentUnknown:        "Sorry, I didn't catch that. Ask me about tasks, schedules or sharing a moment.",
}

const assistantSystem = `You route questions from staff at a care facility.
Classify the question into exactly one intent:
- task_status: asking about tasks, assignments, what is due or overdue
- moment_feedback: asking about sharing photos/videos, feedback or sentiment
- schedule: asking about reminders, due dates, timing or rescheduling
- help: asking what the assistant can do
- unknown: anything else
Return only the JSON object.`

func intentSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"intent": map[string]any{
				"type": "string",
				"enum": []any{IntentTaskStatus, IntentMomentFeedback, IntentSchedule, IntentHelp, IntentUnknown},
			},
		},
		"required":             []any{"intent"},
		"additionalProperties": false,
	}
}

type assistantService struct {
	log *logger.Logger
	llm IntentDetector
}

func NewAssistantService(baseLog *logger.Logger, llm IntentDetector) AssistantService {
	return &assistantService{
		log: baseLog.With("service", "AssistantService"),
		llm: llm,
	}
}

func (s *assistantService) Ask(ctx context.Context, question string) AssistantReply {
	question = strings.TrimSpace(question)
	if question == "" || s.llm == nil {
		return cannedReply(IntentUnknown)
	}
	out, err := s.llm.GenerateJSON(ctx, assistantSystem, question, "assistant_intent", intentSchema())
	if err != nil {
		s.log.Warn("Intent detection failed", "error", err)
		return cannedReply(IntentUnknown)
	}
	intent, _ := out["intent"].(string)
	return cannedReply(strings.TrimSpace(strings.ToLower(intent)))
}

func cannedReply(intent string) AssistantReply {
	reply, ok := cannedReplies[intent]
	if !ok {
		intent = IntentUnknown
		reply = cannedReplies[IntentUnknown]
	}
	return AssistantReply{Intent: intent, Reply: reply}
}
