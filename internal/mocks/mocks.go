// Package mocks holds testify mocks of the service interfaces for handler tests.
package mocks

import "github.com/gastro-elite/backend/internal/service"

var (
	_ service.IAuthService   = (*MockAuthService)(nil)
	_ service.IRecipeService = (*MockRecipeService)(nil)
)
