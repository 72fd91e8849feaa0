package jobs_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rjoubert/tablebook/internal/jobs"
)

func samplePayload() jobs.CancellationNoticePayload {
	return jobs.CancellationNoticePayload{
		ReservationID: "64a0c9b1e4b0f23a5c8d9e01",
		Email:         "ada@example.com",
		Name:          "Ada Lovelace",
		Date:          "2025-01-01",
		Time:          "19:00",
		RequestedAt:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	want := samplePayload()

	raw, err := jobs.EncodePayload(jobs.JobReservationCancellation, want)

	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	j, err := jobs.NewJob(jobs.JobReservationCancellation, raw)

	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if j.ID == "" {
		t.Error("expected a job id")
	}

	if j.MaxAttempts != 5 {
		t.Errorf("maxAttempts = %d, want 5", j.MaxAttempts)
	}

	got, err := jobs.DecodePayload(j)

	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	p, ok := got.(jobs.CancellationNoticePayload)

	if !ok {
		t.Fatalf("decoded type = %T", got)
	}

	if p != want {
		t.Errorf("payload = %+v, want %+v", p, want)
	}
}

func TestEncodePayloadTypeMismatch(t *testing.T) {
	_, err := jobs.EncodePayload(jobs.JobReservationCancellation, struct{ X int }{X: 1})

	if !errors.Is(err, jobs.ErrPayloadTypeMismatch) {
		t.Fatalf("err = %v, want ErrPayloadTypeMismatch", err)
	}
}

func TestNewJobRejectsUnknownType(t *testing.T) {
	_, err := jobs.NewJob(jobs.JobType("mystery"), []byte(`{}`))

	if !errors.Is(err, jobs.ErrInvalidJobType) {
		t.Fatalf("err = %v, want ErrInvalidJobType", err)
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	tests := []struct {
		name    string
		job     jobs.Job
		wantErr error
	}{
		{
			name:    "unknown type",
			job:     jobs.Job{Type: jobs.JobType("mystery"), Payload: []byte(`{}`)},
			wantErr: jobs.ErrInvalidJobType,
		},
		{
			name:    "empty payload",
			job:     jobs.Job{Type: jobs.JobReservationCancellation},
			wantErr: jobs.ErrInvalidJobPayload,
		},
		{
			name:    "broken json",
			job:     jobs.Job{Type: jobs.JobReservationCancellation, Payload: []byte(`{"email":`)},
			wantErr: jobs.ErrInvalidJobPayload,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := jobs.DecodePayload(tc.job)

			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidatePayload(t *testing.T) {
	valid := samplePayload()

	missingEmail := valid
	missingEmail.Email = "  "

	missingID := valid
	missingID.ReservationID = ""

	tests := []struct {
		name    string
		payload any
		wantErr error
	}{
		{name: "valid value", payload: valid},
		{name: "valid pointer", payload: &valid},
		{name: "missing email", payload: missingEmail, wantErr: jobs.ErrInvalidJobPayload},
		{name: "missing reservation id", payload: missingID, wantErr: jobs.ErrInvalidJobPayload},
		{name: "wrong type", payload: "nope", wantErr: jobs.ErrPayloadTypeMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := jobs.ValidatePayload(jobs.JobReservationCancellation, tc.payload)

			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
