package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/internal/models"
	"github.com/gastro-elite/backend/internal/types"
)

// Recipe scopes accepted by the API.
const (
	ScopePersonal = "personal"
	ScopeCompany  = "company"
	ScopeLegacy   = "legacy"
)

var contentColumns = []string{
	"name", "description", "instructions", "servings", "prep_minutes", "cook_minutes", "image_url",
}

// RecipeService serves personal, company and legacy recipes through one API.
type RecipeService struct {
	db    *gorm.DB
	audit *AuditService
}

var _ IRecipeService = (*RecipeService)(nil)

func NewRecipeService(db *gorm.DB, audit *AuditService) *RecipeService {
	return &RecipeService{db: db, audit: audit}
}

// viewer is what the caller may see and change.
type viewer struct {
	userID     uuid.UUID
	companyIDs []uuid.UUID
	owned      map[uuid.UUID]bool
}

func (v *viewer) member(companyID uuid.UUID) bool {
	for _, id := range v.companyIDs {
		if id == companyID {
			return true
		}
	}
	return false
}

func loadViewer(tx *gorm.DB, userID uuid.UUID) (*viewer, error) {
	ids, err := approvedMemberCompanyIDs(tx, userID)
	if err != nil {
		return nil, err
	}

	// Owners keep their own recipes while the company is under review.
	var owned []uuid.UUID
	if err := tx.Model(&models.Company{}).
		Where("owner_id = ?", userID).
		Pluck("id", &owned).Error; err != nil {
		return nil, fmt.Errorf("failed to load owned companies: %w", err)
	}

	v := &viewer{userID: userID, companyIDs: ids, owned: make(map[uuid.UUID]bool, len(owned))}
	for _, id := range owned {
		v.owned[id] = true
		if !v.member(id) {
			v.companyIDs = append(v.companyIDs, id)
		}
	}
	return v, nil
}

func preloadContent(q *gorm.DB, withCategories bool) *gorm.DB {
	q = q.Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
	if withCategories {
		q = q.Preload("Categories")
	}
	return q
}

func filterRecipes(db, q *gorm.DB, filter types.RecipeFilter, categoryID *uuid.UUID, joinTable, joinKey string) *gorm.DB {
	if categoryID != nil {
		q = q.Where("id IN (?)", db.Table(joinTable).Select(joinKey).Where("category_id = ?", *categoryID))
	}
	if term := strings.TrimSpace(filter.Query); term != "" {
		like := containsPattern(term)
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, like, like)
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a search term into a lower-cased LIKE pattern that
// matches the term literally anywhere in the value.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// ListRecipes merges the caller's company, personal and legacy recipes.
// Recipes sharing a name collapse to one entry: company beats personal beats
// legacy, and within a source the most recently updated wins.
func (s *RecipeService) ListRecipes(ctx context.Context, userID uuid.UUID, filter types.RecipeFilter) ([]types.RecipeResponse, error) {
	db := s.db.WithContext(ctx)
	v, err := loadViewer(db, userID)
	if err != nil {
		return nil, err
	}

	var (
		categoryID   *uuid.UUID
		categoryName string
	)
	if filter.CategoryID != "" {
		id, err := uuid.Parse(filter.CategoryID)
		if err != nil {
			return nil, newError(ErrInvalidInput, "invalid category id")
		}
		var category models.Category
		if err := db.First(&category, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []types.RecipeResponse{}, nil
			}
			return nil, fmt.Errorf("failed to load category: %w", err)
		}
		categoryID, categoryName = &id, category.Name
	}

	var all []types.RecipeResponse

	if len(v.companyIDs) > 0 {
		var companyRecipes []models.CompanyRecipe
		q := preloadContent(db.Model(&models.CompanyRecipe{}), true).Where("company_id IN ?", v.companyIDs)
		q = filterRecipes(db, q, filter, categoryID, "company_recipe_categories", "company_recipe_id")
		if err := q.Find(&companyRecipes).Error; err != nil {
			return nil, fmt.Errorf("failed to list company recipes: %w", err)
		}
		for i := range companyRecipes {
			all = append(all, companyResponse(&companyRecipes[i], v))
		}
	}

	var personalRecipes []models.PersonalRecipe
	q := preloadContent(db.Model(&models.PersonalRecipe{}), true).Where("user_id = ?", userID)
	q = filterRecipes(db, q, filter, categoryID, "personal_recipe_categories", "personal_recipe_id")
	if err := q.Find(&personalRecipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list personal recipes: %w", err)
	}
	for i := range personalRecipes {
		all = append(all, personalResponse(&personalRecipes[i]))
	}

	var legacyRecipes []models.Recipe
	q = preloadContent(db.Model(&models.Recipe{}), false)
	if len(v.companyIDs) > 0 {
		q = q.Where("(user_id = ? OR company_id IN ?)", userID, v.companyIDs)
	} else {
		q = q.Where("user_id = ?", userID)
	}
	q = filterRecipes(db, q, types.RecipeFilter{Query: filter.Query}, nil, "", "")
	if categoryID != nil {
		q = q.Where("LOWER(category) = ?", strings.ToLower(categoryName))
	}
	if err := q.Find(&legacyRecipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list legacy recipes: %w", err)
	}
	for i := range legacyRecipes {
		all = append(all, legacyResponse(&legacyRecipes[i], v))
	}

	return dedupeRecipes(all), nil
}

var sourceRank = map[string]int{
	types.SourceCompany:  3,
	types.SourcePersonal: 2,
	types.SourceLegacy:   1,
}

func dedupeRecipes(recipes []types.RecipeResponse) []types.RecipeResponse {
	byName := make(map[string]int, len(recipes))
	out := make([]types.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		key := strings.ToLower(strings.TrimSpace(r.Name))
		idx, seen := byName[key]
		if !seen {
			byName[key] = len(out)
			out = append(out, r)
			continue
		}
		cur := out[idx]
		if sourceRank[r.Source] > sourceRank[cur.Source] ||
			(sourceRank[r.Source] == sourceRank[cur.Source] && r.UpdatedAt.After(cur.UpdatedAt)) {
			out[idx] = r
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// recipeRef is a recipe located by scope and id together with what the viewer may do with it.
type recipeRef struct {
	scope    string
	personal *models.PersonalRecipe
	company  *models.CompanyRecipe
	legacy   *models.Recipe
	editable bool
}

func (r *recipeRef) response(v *viewer) types.RecipeResponse {
	switch {
	case r.company != nil:
		return companyResponse(r.company, v)
	case r.personal != nil:
		return personalResponse(r.personal)
	default:
		return legacyResponse(r.legacy, v)
	}
}

func (r *recipeRef) model() interface{} {
	switch {
	case r.company != nil:
		return r.company
	case r.personal != nil:
		return r.personal
	default:
		return r.legacy
	}
}

func (r *recipeRef) id() uuid.UUID {
	switch {
	case r.company != nil:
		return r.company.ID
	case r.personal != nil:
		return r.personal.ID
	default:
		return r.legacy.ID
	}
}

func normalizeScope(scope string) (string, error) {
	switch scope {
	case "", ScopePersonal, ScopeCompany, ScopeLegacy:
		return scope, nil
	default:
		return "", newError(ErrInvalidInput, "unknown recipe scope %q", scope)
	}
}

// findRecipe loads the recipe and checks read access. An empty scope searches every kind.
func findRecipe(tx *gorm.DB, v *viewer, scope string, id uuid.UUID) (*recipeRef, error) {
	scope, err := normalizeScope(scope)
	if err != nil {
		return nil, err
	}

	if scope == "" || scope == ScopePersonal {
		var recipe models.PersonalRecipe
		err := preloadContent(tx, true).First(&recipe, "id = ?", id).Error
		if err == nil {
			if recipe.UserID != v.userID {
				return nil, newError(ErrForbidden, "you do not have access to this recipe")
			}
			return &recipeRef{scope: ScopePersonal, personal: &recipe, editable: true}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load recipe: %w", err)
		}
	}

	if scope == "" || scope == ScopeCompany {
		var recipe models.CompanyRecipe
		err := preloadContent(tx, true).First(&recipe, "id = ?", id).Error
		if err == nil {
			if !v.member(recipe.CompanyID) {
				return nil, newError(ErrForbidden, "you do not have access to this recipe")
			}
			return &recipeRef{scope: ScopeCompany, company: &recipe, editable: v.owned[recipe.CompanyID]}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load recipe: %w", err)
		}
	}

	if scope == "" || scope == ScopeLegacy {
		var recipe models.Recipe
		err := preloadContent(tx, false).First(&recipe, "id = ?", id).Error
		if err == nil {
			ownRecipe := recipe.UserID != nil && *recipe.UserID == v.userID
			if !ownRecipe && (recipe.CompanyID == nil || !v.member(*recipe.CompanyID)) {
				return nil, newError(ErrForbidden, "you do not have access to this recipe")
			}
			return &recipeRef{scope: ScopeLegacy, legacy: &recipe, editable: legacyEditable(&recipe, v)}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load recipe: %w", err)
		}
	}

	return nil, newError(ErrNotFound, "recipe not found")
}

func legacyEditable(r *models.Recipe, v *viewer) bool {
	if r.UserID != nil && *r.UserID == v.userID {
		return true
	}
	return r.CompanyID != nil && v.owned[*r.CompanyID]
}

func (s *RecipeService) GetRecipe(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID) (*types.RecipeResponse, error) {
	db := s.db.WithContext(ctx)
	v, err := loadViewer(db, userID)
	if err != nil {
		return nil, err
	}
	ref, err := findRecipe(db, v, scope, id)
	if err != nil {
		return nil, err
	}
	resp := ref.response(v)
	return &resp, nil
}

func (s *RecipeService) CreateRecipe(ctx context.Context, userID uuid.UUID, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	scope, err := normalizeScope(req.Scope)
	if err != nil {
		return nil, err
	}
	if scope == ScopeLegacy {
		return nil, newError(ErrInvalidInput, "legacy recipes cannot be created")
	}
	content, err := recipeContent(req)
	if err != nil {
		return nil, err
	}

	var resp types.RecipeResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := loadViewer(tx, userID)
		if err != nil {
			return err
		}

		if scope == ScopeCompany {
			company, err := approvedOwnedCompany(tx, userID)
			if err != nil {
				return err
			}
			categories, err := resolveCategories(tx, req.CategoryIDs, []uuid.UUID{company.ID})
			if err != nil {
				return err
			}
			recipe := &models.CompanyRecipe{
				CompanyID:     company.ID,
				CreatedByID:   userID,
				RecipeContent: content,
				Ingredients:   buildIngredients(req.Ingredients),
				Categories:    categories,
			}
			if err := tx.Create(recipe).Error; err != nil {
				return err
			}
			resp = companyResponse(recipe, v)
			return nil
		}

		categories, err := resolveCategories(tx, req.CategoryIDs, v.companyIDs)
		if err != nil {
			return err
		}
		recipe := &models.PersonalRecipe{
			UserID:        userID,
			RecipeContent: content,
			Ingredients:   buildIngredients(req.Ingredients),
			Categories:    categories,
		}
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		resp = personalResponse(recipe)
		return nil
	})
	if err != nil {
		return nil, wrapInternal("failed to create recipe", err)
	}

	s.audit.Record(ctx, &userID, "recipe.create", resp.Source+"_recipe", resp.ID.String(), resp.Name)
	return &resp, nil
}

func (s *RecipeService) UpdateRecipe(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	content, err := recipeContent(req)
	if err != nil {
		return nil, err
	}

	var resp types.RecipeResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := loadViewer(tx, userID)
		if err != nil {
			return err
		}
		ref, err := findRecipe(tx, v, scope, id)
		if err != nil {
			return err
		}
		if !ref.editable {
			return newError(ErrForbidden, "you cannot modify this recipe")
		}

		var (
			recipeType string
			allowed    []uuid.UUID
		)
		switch {
		case ref.company != nil:
			ref.company.RecipeContent = content
			recipeType, allowed = models.RecipeTypeCompany, []uuid.UUID{ref.company.CompanyID}
		case ref.personal != nil:
			ref.personal.RecipeContent = content
			recipeType, allowed = models.RecipeTypePersonal, v.companyIDs
		default:
			ref.legacy.RecipeContent = content
			recipeType = models.RecipeTypeLegacy
		}

		if err := tx.Model(ref.model()).Select(contentColumns).Updates(ref.model()).Error; err != nil {
			return err
		}

		if err := tx.Where("recipe_id = ? AND recipe_type = ?", ref.id(), recipeType).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		ingredients := buildIngredients(req.Ingredients)
		for i := range ingredients {
			ingredients[i].RecipeID = ref.id()
			ingredients[i].RecipeType = recipeType
		}
		if len(ingredients) > 0 {
			if err := tx.Create(&ingredients).Error; err != nil {
				return err
			}
		}

		if ref.legacy == nil {
			categories, err := resolveCategories(tx, req.CategoryIDs, allowed)
			if err != nil {
				return err
			}
			assoc := tx.Model(ref.model()).Association("Categories")
			if len(categories) == 0 {
				err = assoc.Clear()
			} else {
				err = assoc.Replace(categories)
			}
			if err != nil {
				return err
			}
		}

		fresh, err := findRecipe(tx, v, ref.scope, id)
		if err != nil {
			return err
		}
		resp = fresh.response(v)
		return nil
	})
	if err != nil {
		return nil, wrapInternal("failed to update recipe", err)
	}

	s.audit.Record(ctx, &userID, "recipe.update", resp.Source+"_recipe", resp.ID.String(), resp.Name)
	return &resp, nil
}

func (s *RecipeService) DeleteRecipe(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID) error {
	var source string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := loadViewer(tx, userID)
		if err != nil {
			return err
		}
		ref, err := findRecipe(tx, v, scope, id)
		if err != nil {
			return err
		}
		if !ref.editable {
			return newError(ErrForbidden, "you cannot delete this recipe")
		}
		source = ref.scope
		return tx.Delete(ref.model()).Error
	})
	if err != nil {
		return wrapInternal("failed to delete recipe", err)
	}

	s.audit.Record(ctx, &userID, "recipe.delete", source+"_recipe", id.String(), "")
	return nil
}

func (s *RecipeService) SetImage(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID, imageURL string) (*types.RecipeResponse, error) {
	db := s.db.WithContext(ctx)
	v, err := loadViewer(db, userID)
	if err != nil {
		return nil, err
	}
	ref, err := findRecipe(db, v, scope, id)
	if err != nil {
		return nil, err
	}
	if !ref.editable {
		return nil, newError(ErrForbidden, "you cannot modify this recipe")
	}
	if err := db.Model(ref.model()).Update("image_url", imageURL).Error; err != nil {
		return nil, fmt.Errorf("failed to store image url: %w", err)
	}

	resp := ref.response(v)
	resp.ImageURL = imageURL
	s.audit.Record(ctx, &userID, "recipe.image", resp.Source+"_recipe", id.String(), imageURL)
	return &resp, nil
}

// CheckWritable reports whether userID may change the recipe.
func (s *RecipeService) CheckWritable(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID) error {
	db := s.db.WithContext(ctx)
	v, err := loadViewer(db, userID)
	if err != nil {
		return err
	}
	ref, err := findRecipe(db, v, scope, id)
	if err != nil {
		return err
	}
	if !ref.editable {
		return newError(ErrForbidden, "you cannot modify this recipe")
	}
	return nil
}

func recipeContent(req *types.RecipeRequest) (models.RecipeContent, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.RecipeContent{}, newError(ErrInvalidInput, "recipe name is required")
	}
	if req.Servings < 0 || req.PrepMinutes < 0 || req.CookMinutes < 0 {
		return models.RecipeContent{}, newError(ErrInvalidInput, "servings and times cannot be negative")
	}
	return models.RecipeContent{
		Name:         name,
		Description:  req.Description,
		Instructions: req.Instructions,
		Servings:     req.Servings,
		PrepMinutes:  req.PrepMinutes,
		CookMinutes:  req.CookMinutes,
		ImageURL:     req.ImageURL,
	}, nil
}

func buildIngredients(in []types.IngredientInput) []models.Ingredient {
	out := make([]models.Ingredient, 0, len(in))
	for _, ing := range in {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		out = append(out, models.Ingredient{
			Name:     name,
			Quantity: ing.Quantity,
			Unit:     strings.TrimSpace(ing.Unit),
			Position: len(out),
		})
	}
	return out
}

// resolveCategories loads the requested categories, which must be global or
// belong to one of companyIDs.
func resolveCategories(tx *gorm.DB, rawIDs []string, companyIDs []uuid.UUID) ([]models.Category, error) {
	if len(rawIDs) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(rawIDs))
	seen := make(map[uuid.UUID]bool, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, newError(ErrInvalidInput, "invalid category id %q", raw)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	var categories []models.Category
	if err := tx.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if len(categories) != len(ids) {
		return nil, newError(ErrInvalidInput, "unknown category")
	}
	for _, c := range categories {
		if c.CompanyID == nil {
			continue
		}
		allowed := false
		for _, id := range companyIDs {
			if id == *c.CompanyID {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, newError(ErrInvalidInput, "category %q is not available for this recipe", c.Name)
		}
	}
	return categories, nil
}

func emptyCategories(c []models.Category) []models.Category {
	if c == nil {
		return []models.Category{}
	}
	return c
}

func emptyIngredients(i []models.Ingredient) []models.Ingredient {
	if i == nil {
		return []models.Ingredient{}
	}
	return i
}

func contentResponse(id uuid.UUID, c models.RecipeContent, base models.Base) types.RecipeResponse {
	return types.RecipeResponse{
		ID:           id,
		Name:         c.Name,
		Description:  c.Description,
		Instructions: c.Instructions,
		Servings:     c.Servings,
		PrepMinutes:  c.PrepMinutes,
		CookMinutes:  c.CookMinutes,
		ImageURL:     c.ImageURL,
		CreatedAt:    base.CreatedAt,
		UpdatedAt:    base.UpdatedAt,
	}
}

func companyResponse(r *models.CompanyRecipe, v *viewer) types.RecipeResponse {
	resp := contentResponse(r.ID, r.RecipeContent, r.Base)
	companyID := r.CompanyID
	resp.Source = types.SourceCompany
	resp.CompanyID = &companyID
	resp.Ingredients = emptyIngredients(r.Ingredients)
	resp.Categories = emptyCategories(r.Categories)
	resp.Editable = v.owned[r.CompanyID]
	return resp
}

func personalResponse(r *models.PersonalRecipe) types.RecipeResponse {
	resp := contentResponse(r.ID, r.RecipeContent, r.Base)
	resp.Source = types.SourcePersonal
	resp.Ingredients = emptyIngredients(r.Ingredients)
	resp.Categories = emptyCategories(r.Categories)
	resp.Editable = true
	return resp
}

func legacyResponse(r *models.Recipe, v *viewer) types.RecipeResponse {
	resp := contentResponse(r.ID, r.RecipeContent, r.Base)
	resp.Source = types.SourceLegacy
	resp.CompanyID = r.CompanyID
	resp.Ingredients = emptyIngredients(r.Ingredients)
	resp.Categories = []models.Category{}
	if r.Category != "" {
		resp.Categories = []models.Category{{Name: r.Category}}
	}
	resp.Editable = legacyEditable(r, v)
	return resp
}
