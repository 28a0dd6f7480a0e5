package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/foxxcyber/family-organizer/internal/middleware"
)

// RegisterRoutes mounts the API under /api. Every route requires a bearer token.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	api := app.Group("/api", middleware.AuthRequired(h.cfg))

	// AI calls are rate limited per caller
	aiLimit := limiter.New(limiter.Config{
		Max:        h.cfg.AIRateLimitPerMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := middleware.GetIdentity(c); ok {
				return id.ExternalID
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return Error(c, fiber.StatusTooManyRequests, "too many AI requests, please wait a minute")
		},
	})

	// User routes
	api.Get("/user", h.GetCurrentUser)
	api.Put("/user", h.UpdateCurrentUser)

	// Family routes
	family := api.Group("/family")
	family.Get("/", h.GetFamily)
	family.Post("/", h.CreateFamily)
	family.Put("/", h.UpdateFamily)
	family.Delete("/", h.DeleteFamily)
	family.Get("/members", h.ListMembers)
	family.Put("/members/role", h.UpdateMemberRole)
	family.Delete("/members/:id", h.RemoveMember)
	family.Post("/invite", h.CreateInvite)
	family.Put("/invite", h.CreateInvite)
	family.Delete("/invite", h.DeleteInvite)
	family.Post("/invite/email", h.EmailInvite)
	family.Post("/join", h.JoinFamily)
	family.Get("/join-requests", h.ListJoinRequests)
	family.Post("/join-requests", h.CreateJoinRequest)
	family.Put("/join-requests", h.RespondJoinRequest)

	// Meal plan routes
	api.Get("/meal-plan", h.GetMealPlan)
	api.Post("/meal-plan", h.SaveMealPlan)
	api.Delete("/meal-plan", h.ClearMealPlan)
	api.Post("/meal-plan/generate", aiLimit, h.GenerateMealPlan)

	meals := api.Group("/meals")
	meals.Post("/", h.CreateMeal)
	meals.Put("/:id", h.UpdateMeal)
	meals.Delete("/:id", h.DeleteMeal)

	// Shopping list routes
	shopping := api.Group("/shopping")
	shopping.Get("/", h.GetShoppingList)
	shopping.Post("/", h.SaveShoppingList)
	shopping.Post("/from-meals", h.ShoppingFromMeals)
	shopping.Post("/import", h.ImportShoppingList)
	shopping.Post("/generate", aiLimit, h.GenerateShoppingList)

	// Activity routes
	activities := api.Group("/activities")
	activities.Get("/", h.ListActivities)
	activities.Post("/", h.CreateActivity)
	activities.Put("/:id", h.UpdateActivity)
	activities.Delete("/:id", h.DeleteActivity)
}
