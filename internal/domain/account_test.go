package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitRoles(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{in: "", want: []string{}},
		{in: "ROLE_USER", want: []string{"ROLE_USER"}},
		{in: "ROLE_USER, ROLE_ADMIN", want: []string{"ROLE_USER", "ROLE_ADMIN"}},
		{in: " ROLE_ADMIN ,,ROLE_USER ,", want: []string{"ROLE_ADMIN", "ROLE_USER"}},
		{in: "ROLE_USER,ROLE_USER,ROLE_ADMIN", want: []string{"ROLE_USER", "ROLE_ADMIN"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SplitRoles(tc.in), "input %q", tc.in)
	}
}

func TestAccountRoleListRoundTrip(t *testing.T) {
	acc := &Account{Roles: JoinRoles([]string{RoleUser, RoleAdmin})}
	assert.Equal(t, []string{RoleUser, RoleAdmin}, acc.RoleList())
}

func TestServiceRequestStatusValid(t *testing.T) {
	assert.True(t, ServiceRequestDone.Valid())
	assert.False(t, ServiceRequestStatus("LOST").Valid())
}
