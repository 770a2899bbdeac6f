package gcp

import (
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
)

func TestInferSpeechEncoding(t *testing.T) {
	cases := map[string]speechpb.RecognitionConfig_AudioEncoding{
		"audio/flac": speechpb.RecognitionConfig_FLAC,
		"audio/wav":  speechpb.RecognitionConfig_LINEAR16,
		"audio/mpeg": speechpb.RecognitionConfig_MP3,
		"audio/ogg":  speechpb.RecognitionConfig_OGG_OPUS,
		"":           speechpb.RecognitionConfig_ENCODING_UNSPECIFIED,
	}
	for mime, want := range cases {
		if got := inferSpeechEncoding(mime); got != want {
			t.Fatalf("inferSpeechEncoding(%q): want=%v got=%v", mime, want, got)
		}
	}
}

func TestTranscriptTextJoinsTopAlternatives(t *testing.T) {
	resp := &speechpb.LongRunningRecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " resident  smiled "}, {Transcript: "ignored"}}},
			{Alternatives: nil},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "during lunch"}}},
		},
	}
	if got := transcriptText(resp); got != "resident smiled during lunch" {
		t.Fatalf("transcriptText: want=%q got=%q", "resident smiled during lunch", got)
	}
	if got := transcriptText(nil); got != "" {
		t.Fatalf("transcriptText(nil): want empty got=%q", got)
	}
}

func TestRetryableSpeechCode(t *testing.T) {
	if !retryableSpeechCode(codes.Unavailable) || retryableSpeechCode(codes.InvalidArgument) {
		t.Fatalf("retryableSpeechCode: unexpected classification")
	}
}

func TestClientOptions(t *testing.T) {
	if got := clientOptions(""); got != nil {
		t.Fatalf("clientOptions(empty): want nil got=%v", got)
	}
	if got := clientOptions(`{"type":"service_account"}`); len(got) != 1 {
		t.Fatalf("clientOptions(json): want 1 option got=%d", len(got))
	}
	if got := clientOptions("/etc/creds.json"); len(got) != 1 {
		t.Fatalf("clientOptions(file): want 1 option got=%d", len(got))
	}
}
