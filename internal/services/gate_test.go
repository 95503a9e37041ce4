package services_test

import (
	"testing"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/models"
	"harvestiq/internal/services"

	"github.com/stretchr/testify/assert"
)

var (
	admin  = models.Actor{Email: "admin@test.com", Name: "Admin User", Role: models.RoleAdmin}
	farmer = models.Actor{Email: "farmer@test.com", Name: "Farmer User", Role: models.RoleFarmer}
	other  = models.Actor{Email: "other@test.com", Name: "Other Farmer", Role: models.RoleFarmer}
	buyer  = models.Actor{Email: "buyer@test.com", Name: "Buyer User", Role: models.RoleBuyer}
)

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name  string
		actor models.Actor
		req   services.Requirement
		ok    bool
	}{
		{"anonymous is refused", models.Actor{}, services.Requirement{}, false},
		{"any role when none listed", buyer, services.Requirement{}, true},
		{"role listed", farmer, services.Roles(models.RoleFarmer), true},
		{"role not listed", buyer, services.Roles(models.RoleFarmer, models.RoleAdmin), false},
		{"owner matches", farmer, services.Requirement{Roles: []models.Role{models.RoleFarmer}, OwnerEmail: "farmer@test.com"}, true},
		{"owner match ignores case", farmer, services.Requirement{Roles: []models.Role{models.RoleFarmer}, OwnerEmail: "Farmer@Test.com"}, true},
		{"other farmer", other, services.Requirement{Roles: []models.Role{models.RoleFarmer}, OwnerEmail: "farmer@test.com"}, false},
		{"admin bypasses ownership", admin, services.Requirement{Roles: []models.Role{models.RoleAdmin, models.RoleFarmer}, OwnerEmail: "farmer@test.com"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := services.Authorize(tc.actor, tc.req)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrAuthorization)
			}
		})
	}
}
