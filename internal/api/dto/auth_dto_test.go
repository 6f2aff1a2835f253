package dto

import (
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     SignupRequest
		invalid []string
	}{
		{"valid", SignupRequest{Username: "farm.ops-1", Password: "longenough"}, nil},
		{"missing everything", SignupRequest{}, []string{"username", "password"}},
		{"short username", SignupRequest{Username: "abc", Password: "longenough"}, []string{"username"}},
		{"bad characters", SignupRequest{Username: "bad name!", Password: "longenough"}, []string{"username"}},
		{"short password", SignupRequest{Username: "alice", Password: "short"}, []string{"password"}},
		{"password past bcrypt limit", SignupRequest{Username: "alice", Password: strings.Repeat("p", 73)}, []string{"password"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.invalid == nil {
				assert.NoError(t, err)
				return
			}
			var errs validation.Errors
			require.ErrorAs(t, err, &errs)
			assert.Len(t, errs, len(tc.invalid))
			for _, field := range tc.invalid {
				assert.Contains(t, errs, field)
			}
		})
	}
}

func TestCreateServiceRequestValidate(t *testing.T) {
	req := CreateServiceRequest{FarmCode: " F01 ", EquipmentCode: "EQ-7", Title: " Feeder jammed ", VisitDate: "2025-09-03"}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "F01", req.FarmCode)
	require.NotNil(t, req.ParsedVisitDate())
	assert.Equal(t, "2025-09-03", req.ParsedVisitDate().Format(VisitDateLayout))

	bad := CreateServiceRequest{FarmCode: "F01", EquipmentCode: "EQ-7", Title: "x", VisitDate: "03/09/2025"}
	var errs validation.Errors
	require.ErrorAs(t, bad.Validate(), &errs)
	assert.Contains(t, errs, "visitDate")

	assert.Nil(t, CreateServiceRequest{}.ParsedVisitDate())
}
