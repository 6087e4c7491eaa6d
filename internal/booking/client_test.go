package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-srikar/Medical-chatbot/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, WithLogger(logging.New("error")))
}

func TestValidateUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/validate-user", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "555-0100", body["phoneNumber"])
		assert.Equal(t, "1990-01-01", body["dob"])

		_ = json.NewEncoder(w).Encode(map[string]string{"message": "patient exists"})
	})

	resp, err := client.ValidateUser(context.Background(), "555-0100", "1990-01-01")
	require.NoError(t, err)
	assert.True(t, resp.PatientExists())
}

func TestValidateUserNewPatient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "patient not found"})
	})

	resp, err := client.ValidateUser(context.Background(), "555-0199", "1985-06-15")
	require.NoError(t, err)
	assert.False(t, resp.PatientExists())
}

func TestCreateUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/create-user", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Jane", body["firstName"])
		assert.Equal(t, "Doe", body["lastName"])

		_ = json.NewEncoder(w).Encode(map[string]string{"message": "user created"})
	})

	resp, err := client.CreateUser(context.Background(), "Jane", "Doe", "555-0100", "1990-01-01")
	require.NoError(t, err)
	assert.Equal(t, "user created", resp.Message)
}

func TestListDoctors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/doctors", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]Doctor{
			{ID: "d1", Name: "Alice Smith", Specialty: "Cardiology"},
			{ID: "d2", Name: "Bob Jones", Specialty: "Dermatology"},
		})
	})

	doctors, err := client.ListDoctors(context.Background())
	require.NoError(t, err)
	require.Len(t, doctors, 2)
	assert.Equal(t, "Cardiology", doctors[0].Specialty)
}

func TestListTimeSlots(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/timeslots", r.URL.Path)
		assert.Equal(t, "d1", r.URL.Query().Get("doctorId"))
		assert.Equal(t, "2026-09-01", r.URL.Query().Get("date"))
		_ = json.NewEncoder(w).Encode([]TimeSlot{
			{ID: "s1", Time: "09:00 AM", Available: true},
			{ID: "s2", Time: "09:30 AM", Available: false},
		})
	})

	slots, err := client.ListTimeSlots(context.Background(), "d1", "2026-09-01")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Available)
}

func TestBookAppointment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appointments", r.URL.Path)

		var appt AppointmentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&appt))
		assert.Equal(t, "d1", appt.DoctorID)
		assert.Equal(t, "checkup", appt.Reason)

		_ = json.NewEncoder(w).Encode(AppointmentResponse{Success: true, AppointmentID: "appt-42"})
	})

	resp, err := client.BookAppointment(context.Background(), AppointmentRequest{
		DoctorID:   "d1",
		DoctorName: "Alice Smith",
		Date:       "2026-09-01",
		TimeSlot:   TimeSlot{ID: "s1", Time: "09:00 AM", Available: true},
		Reason:     "checkup",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "appt-42", resp.AppointmentID)
}

func TestNon2xxIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := client.ListDoctors(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestTransportFailureIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	client := NewClient(srv.URL, WithLogger(logging.New("error")))

	_, err := client.ValidateUser(context.Background(), "555", "1990-01-01")
	require.Error(t, err)
}
