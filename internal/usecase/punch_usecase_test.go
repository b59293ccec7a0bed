package usecase

import (
	"testing"

	"shiftledger/internal/domain"
)

func TestCashDrawerRequiredDisabled(t *testing.T) {
	company := &domain.Company{Settings: domain.Settings{CashDrawerEnabled: false}}
	user := &domain.User{Role: domain.RoleFrontdesk}
	if cashDrawerRequired(company, user) {
		t.Errorf("expected no cash drawer requirement when CashDrawerEnabled is false")
	}
}

func TestCashDrawerRequiredForAll(t *testing.T) {
	company := &domain.Company{Settings: domain.Settings{
		CashDrawerEnabled:        true,
		CashDrawerRequiredForAll: true,
	}}
	user := &domain.User{Role: domain.RoleMaintenance}
	if !cashDrawerRequired(company, user) {
		t.Errorf("expected cash drawer requirement when CashDrawerRequiredForAll is true")
	}
}

func TestCashDrawerRequiredByRole(t *testing.T) {
	company := &domain.Company{Settings: domain.Settings{
		CashDrawerEnabled:       true,
		CashDrawerRequiredRoles: []string{string(domain.RoleFrontdesk)},
	}}
	frontdesk := &domain.User{Role: domain.RoleFrontdesk}
	housekeeping := &domain.User{Role: domain.RoleHousekeeping}

	if !cashDrawerRequired(company, frontdesk) {
		t.Errorf("expected cash drawer requirement for a role listed in CashDrawerRequiredRoles")
	}
	if cashDrawerRequired(company, housekeeping) {
		t.Errorf("expected no cash drawer requirement for a role absent from CashDrawerRequiredRoles")
	}
}
