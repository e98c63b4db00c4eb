package common

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"oasisbot/models"
)

func adminRoleID(v int64) *int64 { return &v }

func TestHasAdminRole(t *testing.T) {
	configured := &models.GuildSettings{GuildID: 777, AdminRoleID: adminRoleID(424242)}

	tests := []struct {
		name     string
		roles    []string
		settings *models.GuildSettings
		want     bool
	}{
		{"member holds configured role", []string{"111", "424242"}, configured, true},
		{"member lacks configured role", []string{"111", "222"}, configured, false},
		{"no admin role configured", []string{"424242"}, &models.GuildSettings{GuildID: 777}, false},
		{"zero role ID configured", []string{"0"}, &models.GuildSettings{GuildID: 777, AdminRoleID: adminRoleID(0)}, false},
		{"nil settings", []string{"424242"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasAdminRole(tt.roles, tt.settings))
		})
	}
}
