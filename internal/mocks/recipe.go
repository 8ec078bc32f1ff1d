package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/gastro-elite/backend/internal/types"
)

// MockRecipeService is a mock implementation of the RecipeService interface
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) ListRecipes(ctx context.Context, userID uuid.UUID, filter types.RecipeFilter) ([]types.RecipeResponse, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) GetRecipe(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID) (*types.RecipeResponse, error) {
	args := m.Called(ctx, userID, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) CreateRecipe(ctx context.Context, userID uuid.UUID, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) UpdateRecipe(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	args := m.Called(ctx, userID, scope, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) DeleteRecipe(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID) error {
	return m.Called(ctx, userID, scope, id).Error(0)
}

func (m *MockRecipeService) SetImage(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID, imageURL string) (*types.RecipeResponse, error) {
	args := m.Called(ctx, userID, scope, id, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) CheckWritable(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID) error {
	return m.Called(ctx, userID, scope, id).Error(0)
}
