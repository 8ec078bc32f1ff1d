package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastro-elite/backend/internal/models"
	"github.com/gastro-elite/backend/internal/service"
	"github.com/gastro-elite/backend/internal/testhelpers"
	"github.com/gastro-elite/backend/internal/types"
)

type kitchen struct {
	owner    *models.User
	employee *models.User
	company  *models.Company
}

func setupKitchen(t *testing.T, env *testEnv) *kitchen {
	t.Helper()
	owner := testhelpers.CreateUser(t, env.db, "owner@example.com", testhelpers.Business())
	company := testhelpers.CreateCompany(t, env.db, owner, "Le Coq", models.CompanyApproved)
	employee := testhelpers.CreateUser(t, env.db, "emp@example.com")
	testhelpers.AddMember(t, env.db, company, employee, models.RoleEmployee)
	return &kitchen{owner: owner, employee: employee, company: company}
}

func TestCreatePersonalRecipe(t *testing.T) {
	env := setupEnv(t)
	user := testhelpers.CreateUser(t, env.db, "home@example.com")
	category, err := env.categories.Create(context.Background(), testhelpers.CreateUser(t, env.db, "root@example.com", testhelpers.Admin()).ID,
		&types.CategoryRequest{Name: "Soups"})
	require.NoError(t, err)

	recipe, err := env.recipes.CreateRecipe(context.Background(), user.ID, &types.RecipeRequest{
		Name:         " Tomato soup ",
		Instructions: "Simmer.",
		Servings:     4,
		Ingredients: []types.IngredientInput{
			{Name: "Tomato", Quantity: 6, Unit: "pcs"},
			{Name: "Basil", Quantity: 1, Unit: "bunch"},
		},
		CategoryIDs: []string{category.ID.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Tomato soup", recipe.Name)
	assert.Equal(t, types.SourcePersonal, recipe.Source)
	assert.True(t, recipe.Editable)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, 1, recipe.Ingredients[1].Position)
	require.Len(t, recipe.Categories, 1)

	var ingredient models.Ingredient
	require.NoError(t, env.db.Where("name = ?", "Basil").First(&ingredient).Error)
	assert.Equal(t, models.RecipeTypePersonal, ingredient.RecipeType)
	assert.Equal(t, recipe.ID, ingredient.RecipeID)
}

func TestCreateCompanyRecipeRequiresApprovedOwner(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	k := setupKitchen(t, env)

	req := &types.RecipeRequest{Scope: "company", Name: "House stock"}
	_, err := env.recipes.CreateRecipe(ctx, k.employee.ID, req)
	assert.ErrorIs(t, err, service.ErrForbidden)

	pendingOwner := testhelpers.CreateUser(t, env.db, "pending@example.com", testhelpers.Business())
	testhelpers.CreateCompany(t, env.db, pendingOwner, "Not Yet", models.CompanyPending)
	_, err = env.recipes.CreateRecipe(ctx, pendingOwner.ID, req)
	assert.ErrorIs(t, err, service.ErrForbidden)

	recipe, err := env.recipes.CreateRecipe(ctx, k.owner.ID, req)
	require.NoError(t, err)
	assert.Equal(t, types.SourceCompany, recipe.Source)
	require.NotNil(t, recipe.CompanyID)
	assert.Equal(t, k.company.ID, *recipe.CompanyID)
	assert.True(t, recipe.Editable)
}

func TestUnifiedListDedupesWithCompanyPrecedence(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	k := setupKitchen(t, env)

	testhelpers.CreateCompanyRecipe(t, env.db, k.company, "Béarnaise")
	testhelpers.CreatePersonalRecipe(t, env.db, k.employee, " béarnaise ")
	testhelpers.CreatePersonalRecipe(t, env.db, k.employee, "Pancakes")
	testhelpers.CreateLegacyRecipe(t, env.db, &k.employee.ID, nil, "PANCAKES", "Breakfast")
	testhelpers.CreateLegacyRecipe(t, env.db, &k.employee.ID, nil, "Old omelette", "")

	recipes, err := env.recipes.ListRecipes(ctx, k.employee.ID, types.RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, recipes, 3)

	bySource := map[string]types.RecipeResponse{}
	for _, r := range recipes {
		bySource[r.Name] = r
	}
	assert.Equal(t, types.SourceCompany, bySource["Béarnaise"].Source)
	assert.False(t, bySource["Béarnaise"].Editable)
	assert.Equal(t, types.SourcePersonal, bySource["Pancakes"].Source)
	assert.Equal(t, types.SourceLegacy, bySource["Old omelette"].Source)
	assert.True(t, bySource["Old omelette"].Editable)
}

func TestUnifiedListKeepsMostRecentWithinSource(t *testing.T) {
	env := setupEnv(t)
	user := testhelpers.CreateUser(t, env.db, "home@example.com")
	older := testhelpers.CreatePersonalRecipe(t, env.db, user, "Risotto")
	newer := testhelpers.CreatePersonalRecipe(t, env.db, user, "risotto")
	require.NoError(t, env.db.Model(older).UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	recipes, err := env.recipes.ListRecipes(context.Background(), user.ID, types.RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, newer.ID, recipes[0].ID)
}

func TestUnifiedListHidesUnapprovedAndForeignCompanies(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	k := setupKitchen(t, env)
	testhelpers.CreateCompanyRecipe(t, env.db, k.company, "Consommé")

	otherOwner := testhelpers.CreateUser(t, env.db, "other@example.com", testhelpers.Business())
	other := testhelpers.CreateCompany(t, env.db, otherOwner, "Other", models.CompanyApproved)
	testhelpers.CreateCompanyRecipe(t, env.db, other, "Secret sauce")

	pendingOwner := testhelpers.CreateUser(t, env.db, "pending@example.com", testhelpers.Business())
	pending := testhelpers.CreateCompany(t, env.db, pendingOwner, "Pending", models.CompanyPending)
	testhelpers.CreateCompanyRecipe(t, env.db, pending, "Draft dish")
	testhelpers.AddMember(t, env.db, pending, k.employee, models.RoleEmployee)

	recipes, err := env.recipes.ListRecipes(ctx, k.employee.ID, types.RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Consommé", recipes[0].Name)

	recipes, err = env.recipes.ListRecipes(ctx, otherOwner.ID, types.RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Secret sauce", recipes[0].Name)
}

func TestOwnerKeepsRecipesWhileCompanyIsNotApproved(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	for _, status := range []models.CompanyStatus{models.CompanyPending, models.CompanyRejected} {
		t.Run(string(status), func(t *testing.T) {
			owner := testhelpers.CreateUser(t, env.db, "owner-"+string(status)+"@example.com", testhelpers.Business())
			company := testhelpers.CreateCompany(t, env.db, owner, "Kitchen "+string(status), status)
			recipe := testhelpers.CreateCompanyRecipe(t, env.db, company, "Draft dish")
			companyID := company.ID
			testhelpers.CreateLegacyRecipe(t, env.db, nil, &companyID, "Old dish", "")

			_, err := service.NewBackfillService(env.db).BackfillRecipes(ctx, false)
			require.NoError(t, err)

			recipes, err := env.recipes.ListRecipes(ctx, owner.ID, types.RecipeFilter{})
			require.NoError(t, err)
			require.Len(t, recipes, 2)
			for _, r := range recipes {
				assert.Equal(t, types.SourceCompany, r.Source)
				assert.True(t, r.Editable)
			}

			updated, err := env.recipes.UpdateRecipe(ctx, owner.ID, "company", recipe.ID, &types.RecipeRequest{Name: "Final dish"})
			require.NoError(t, err)
			assert.Equal(t, "Final dish", updated.Name)

			// New company recipes still wait for approval
			_, err = env.recipes.CreateRecipe(ctx, owner.ID, &types.RecipeRequest{Scope: "company", Name: "Another"})
			assert.ErrorIs(t, err, service.ErrForbidden)
		})
	}
}

func TestUnifiedListFilters(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	admin := testhelpers.CreateUser(t, env.db, "root@example.com", testhelpers.Admin())
	user := testhelpers.CreateUser(t, env.db, "home@example.com")
	desserts, err := env.categories.Create(ctx, admin.ID, &types.CategoryRequest{Name: "Desserts"})
	require.NoError(t, err)

	_, err = env.recipes.CreateRecipe(ctx, user.ID, &types.RecipeRequest{Name: "Tiramisu", CategoryIDs: []string{desserts.ID.String()}})
	require.NoError(t, err)
	_, err = env.recipes.CreateRecipe(ctx, user.ID, &types.RecipeRequest{Name: "Lasagne", Description: "Baked pasta"})
	require.NoError(t, err)
	testhelpers.CreateLegacyRecipe(t, env.db, &user.ID, nil, "Panna cotta", "desserts")

	recipes, err := env.recipes.ListRecipes(ctx, user.ID, types.RecipeFilter{CategoryID: desserts.ID.String()})
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Panna cotta", recipes[0].Name)
	assert.Equal(t, "Tiramisu", recipes[1].Name)

	recipes, err = env.recipes.ListRecipes(ctx, user.ID, types.RecipeFilter{Query: "PASTA"})
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Lasagne", recipes[0].Name)

	_, err = env.recipes.CreateRecipe(ctx, user.ID, &types.RecipeRequest{Name: "100% rye bread"})
	require.NoError(t, err)
	for query, want := range map[string]int{"_": 0, "%": 1, "100%": 1, "0%": 1, "x%y": 0} {
		recipes, err = env.recipes.ListRecipes(ctx, user.ID, types.RecipeFilter{Query: query})
		require.NoError(t, err)
		assert.Len(t, recipes, want, "query %q", query)
	}

	_, err = env.recipes.ListRecipes(ctx, user.ID, types.RecipeFilter{CategoryID: "nope"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestEmployeeCannotModifyCompanyRecipe(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	k := setupKitchen(t, env)
	recipe := testhelpers.CreateCompanyRecipe(t, env.db, k.company, "Fond brun")

	got, err := env.recipes.GetRecipe(ctx, k.employee.ID, "company", recipe.ID)
	require.NoError(t, err)
	assert.False(t, got.Editable)
	require.Len(t, got.Ingredients, 1)

	_, err = env.recipes.UpdateRecipe(ctx, k.employee.ID, "company", recipe.ID, &types.RecipeRequest{Name: "Changed"})
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.ErrorIs(t, env.recipes.DeleteRecipe(ctx, k.employee.ID, "company", recipe.ID), service.ErrForbidden)

	stranger := testhelpers.CreateUser(t, env.db, "stranger@example.com")
	_, err = env.recipes.GetRecipe(ctx, stranger.ID, "", recipe.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestUpdateRecipeReplacesIngredientsAndCategories(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	k := setupKitchen(t, env)
	sauces, err := env.categories.Create(ctx, k.owner.ID, &types.CategoryRequest{Name: "Sauces", CompanyID: k.company.ID.String()})
	require.NoError(t, err)
	recipe := testhelpers.CreateCompanyRecipe(t, env.db, k.company, "Fond brun")

	updated, err := env.recipes.UpdateRecipe(ctx, k.owner.ID, "company", recipe.ID, &types.RecipeRequest{
		Name:        "Fond brun de veau",
		Servings:    0,
		Ingredients: []types.IngredientInput{{Name: "Veal bones", Quantity: 3, Unit: "kg"}, {Name: "Mirepoix", Quantity: 1, Unit: "kg"}},
		CategoryIDs: []string{sauces.ID.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Fond brun de veau", updated.Name)
	assert.Equal(t, 0, updated.Servings)
	require.Len(t, updated.Ingredients, 2)
	assert.Equal(t, "Veal bones", updated.Ingredients[0].Name)
	require.Len(t, updated.Categories, 1)
	assert.Equal(t, "Sauces", updated.Categories[0].Name)

	var count int64
	require.NoError(t, env.db.Model(&models.Ingredient{}).Where("recipe_id = ?", recipe.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	updated, err = env.recipes.UpdateRecipe(ctx, k.owner.ID, "company", recipe.ID, &types.RecipeRequest{Name: "Fond brun de veau"})
	require.NoError(t, err)
	assert.Empty(t, updated.Categories)
	assert.Empty(t, updated.Ingredients)
}

func TestRecipeCategoryMustBeVisible(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	k := setupKitchen(t, env)
	secret, err := env.categories.Create(ctx, k.owner.ID, &types.CategoryRequest{Name: "House", CompanyID: k.company.ID.String()})
	require.NoError(t, err)

	outsider := testhelpers.CreateUser(t, env.db, "outsider@example.com")
	_, err = env.recipes.CreateRecipe(ctx, outsider.ID, &types.RecipeRequest{Name: "Mine", CategoryIDs: []string{secret.ID.String()}})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = env.recipes.CreateRecipe(ctx, outsider.ID, &types.RecipeRequest{Name: "Mine", CategoryIDs: []string{uuid.NewString()}})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestDeleteRecipeIsSoft(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "home@example.com")
	recipe := testhelpers.CreatePersonalRecipe(t, env.db, user, "Quiche")

	other := testhelpers.CreateUser(t, env.db, "other@example.com")
	assert.ErrorIs(t, env.recipes.DeleteRecipe(ctx, other.ID, "personal", recipe.ID), service.ErrForbidden)

	require.NoError(t, env.recipes.DeleteRecipe(ctx, user.ID, "personal", recipe.ID))
	_, err := env.recipes.GetRecipe(ctx, user.ID, "personal", recipe.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	var stored models.PersonalRecipe
	require.NoError(t, env.db.Unscoped().First(&stored, "id = ?", recipe.ID).Error)
	assert.True(t, stored.DeletedAt.Valid)
}

func TestGetRecipeUnknownScope(t *testing.T) {
	env := setupEnv(t)
	user := testhelpers.CreateUser(t, env.db, "home@example.com")
	_, err := env.recipes.GetRecipe(context.Background(), user.ID, "shared", uuid.New())
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
