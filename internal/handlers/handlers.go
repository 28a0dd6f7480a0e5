package handlers

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foxxcyber/family-organizer/internal/config"
	"github.com/foxxcyber/family-organizer/internal/database"
	"github.com/foxxcyber/family-organizer/internal/middleware"
	"github.com/foxxcyber/family-organizer/internal/models"
	"github.com/foxxcyber/family-organizer/internal/services"
)

// Store is the persistence the handlers need. *database.DB implements it.
type Store interface {
	services.MealPlanStore
	services.ShoppingStore
	services.FamilyStore

	EnsureUser(ctx context.Context, id models.Identity) (*models.User, error)
	UpdateUserName(ctx context.Context, id uuid.UUID, req *models.UpdateUserRequest) (*models.User, error)

	CreateFamily(ctx context.Context, ownerID uuid.UUID, name string, maxMembers int) (*models.Family, error)
	GetFamilyByID(ctx context.Context, id uuid.UUID) (*models.Family, error)
	GetFamilyWithMembers(ctx context.Context, id, viewerID uuid.UUID) (*models.FamilyWithMembers, error)
	ListFamilyMembers(ctx context.Context, familyID uuid.UUID) ([]models.FamilyMember, error)
	GetFamilyMember(ctx context.Context, familyID, memberID uuid.UUID) (*models.FamilyMember, error)
	CountFamilyMembers(ctx context.Context, familyID uuid.UUID) (int, error)
	RenameFamily(ctx context.Context, id uuid.UUID, name string) (*models.Family, error)
	DeleteFamily(ctx context.Context, id uuid.UUID) error
	RemoveFamilyMember(ctx context.Context, familyID, memberID uuid.UUID) error
	UpdateMemberRole(ctx context.Context, familyID, memberID uuid.UUID, role models.Role) error
	ListPendingJoinRequests(ctx context.Context, familyID uuid.UUID) ([]models.JoinRequest, error)

	ListMealsInRange(ctx context.Context, familyID uuid.UUID, start, end time.Time) ([]models.Meal, error)
	ClearMealsInRange(ctx context.Context, familyID uuid.UUID, start, end time.Time) (int64, error)
	GetMeal(ctx context.Context, familyID, id uuid.UUID) (*models.Meal, error)
	CreateMeal(ctx context.Context, meal *models.Meal) error
	UpdateMeal(ctx context.Context, meal *models.Meal) error
	DeleteMeal(ctx context.Context, familyID, id uuid.UUID) error

	ListActivities(ctx context.Context, familyID uuid.UUID, limit, offset int) ([]models.Activity, int, error)
	GetActivity(ctx context.Context, familyID, id uuid.UUID) (*models.Activity, error)
	CreateActivity(ctx context.Context, a *models.Activity) error
	UpdateActivity(ctx context.Context, a *models.Activity) error
	DeleteActivity(ctx context.Context, familyID, id uuid.UUID) error
}

// Handler holds all handler dependencies
type Handler struct {
	db        Store
	cfg       *config.Config
	logger    *zap.Logger
	validator *validator.Validate

	saver      *services.MealPlanSaver
	shopping   *services.ShoppingListService
	families   *services.FamilyService
	planner    *services.MealPlanGenerator
	shoppingAI *services.ShoppingGenerator
	mailer     services.Mailer
	ingredient *services.Categorizer
	manual     *services.Categorizer
}

// New creates a new Handler instance. gen and mailer may be nil when AI or
// SMTP are not configured.
func New(db Store, cfg *config.Config, logger *zap.Logger, gen services.ContentGenerator, mailer services.Mailer) *Handler {
	return &Handler{
		db:         db,
		cfg:        cfg,
		logger:     logger,
		validator:  NewValidator(),
		saver:      services.NewMealPlanSaver(db, logger),
		shopping:   services.NewShoppingListService(db, logger),
		families:   services.NewFamilyService(db, cfg.InviteExpiry, logger),
		planner:    services.NewMealPlanGenerator(gen, logger),
		shoppingAI: services.NewShoppingGenerator(gen, logger),
		mailer:     mailer,
		ingredient: services.MealIngredientCategorizer(),
		manual:     services.ShoppingItemCategorizer(),
	}
}

// NewValidator returns a validator that reports fields by their JSON names
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data"`
	Error    string      `json:"error,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
	Meta     *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// Created returns a successful response with status 201
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithWarnings returns a successful response listing non-fatal problems
func SuccessWithWarnings(c *fiber.Ctx, data interface{}, warnings []string) error {
	return c.JSON(APIResponse{
		Success:  true,
		Data:     data,
		Warnings: warnings,
	})
}

// SuccessWithMeta returns a successful response with pagination
func SuccessWithMeta(c *fiber.Ctx, data interface{}, total, limit, offset int) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// bind parses the request body into req and validates it
func (h *Handler) bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request")
	}

	fe := verrs[0]
	field := fe.Field()
	if field == "" {
		field = fe.StructField()
	}
	if fe.Tag() == "required" {
		return fiber.NewError(fiber.StatusBadRequest, field+" is required")
	}
	return fiber.NewError(fiber.StatusBadRequest, field+" is invalid")
}

// currentUser resolves the authenticated caller, creating the local record
// on first sight
func (h *Handler) currentUser(c *fiber.Ctx) (*models.User, error) {
	if user, ok := c.Locals("user").(*models.User); ok {
		return user, nil
	}

	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
	}

	user, err := h.db.EnsureUser(c.Context(), identity)
	if err != nil {
		h.logger.Error("failed to resolve user", zap.String("external_id", identity.ExternalID), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to resolve user")
	}

	c.Locals("user", user)
	return user, nil
}

// familyUser resolves the caller and requires them to belong to a family
func (h *Handler) familyUser(c *fiber.Ctx) (*models.User, uuid.UUID, error) {
	user, err := h.currentUser(c)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if user.FamilyID == nil {
		return nil, uuid.Nil, fiber.NewError(fiber.StatusNotFound, "you are not part of a family")
	}
	return user, *user.FamilyID, nil
}

// fail maps a domain error to a *fiber.Error for ErrorHandler to render.
// Unknown errors are logged and reported as message with status 500.
func (h *Handler) fail(c *fiber.Ctx, err error, message string) error {
	status := fiber.StatusInternalServerError
	text := message

	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrFamilyNotFound),
		errors.Is(err, database.ErrMemberNotFound),
		errors.Is(err, database.ErrJoinRequestNotFound),
		errors.Is(err, database.ErrMealNotFound),
		errors.Is(err, database.ErrShoppingListNotFound),
		errors.Is(err, database.ErrActivityNotFound):
		status, text = fiber.StatusNotFound, err.Error()

	case errors.Is(err, database.ErrUserHasFamily),
		errors.Is(err, services.ErrAlreadyInFamily),
		errors.Is(err, services.ErrJoinRequestNotPending):
		status, text = fiber.StatusConflict, err.Error()

	case errors.Is(err, services.ErrFamilyFull),
		errors.Is(err, services.ErrInviteInvalid),
		errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrInvalidDate):
		status, text = fiber.StatusBadRequest, err.Error()

	case errors.Is(err, services.ErrNotFamilyOwner),
		errors.Is(err, services.ErrInviteNotPermitted):
		status, text = fiber.StatusForbidden, err.Error()

	case errors.Is(err, services.ErrInvalidAIResponse),
		errors.Is(err, services.ErrEmptyAIResponse):
		status, text = fiber.StatusBadGateway, "AI returned an unusable response, please try again"

	case errors.Is(err, services.ErrAIUnavailable),
		errors.Is(err, services.ErrEmailDisabled):
		status, text = fiber.StatusServiceUnavailable, err.Error()
	}

	if status == fiber.StatusInternalServerError {
		h.logger.Error(message,
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return fiber.NewError(status, text)
}

// weekFromQuery reads the week window from the first non-empty query key,
// defaulting to the current Monday-based week
func weekFromQuery(c *fiber.Ctx, keys ...string) (services.WeekWindow, error) {
	for _, k := range keys {
		if v := c.Query(k); v != "" {
			w, err := services.ParseWeekStart(v)
			if err != nil {
				return services.WeekWindow{}, fiber.NewError(fiber.StatusBadRequest, "invalid "+k)
			}
			return w, nil
		}
	}
	return services.NewWeekWindow(services.StartOfWeek(time.Now())), nil
}

// weekFromBody parses a week start sent in a request body
func weekFromBody(s string) (services.WeekWindow, error) {
	if strings.TrimSpace(s) == "" {
		return services.NewWeekWindow(services.StartOfWeek(time.Now())), nil
	}
	w, err := services.ParseWeekStart(s)
	if err != nil {
		return services.WeekWindow{}, fiber.NewError(fiber.StatusBadRequest, "invalid weekStart")
	}
	return w, nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
