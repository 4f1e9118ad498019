package blog

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// UserController serves registration, login, logout and account lookup
type UserController struct {
	Debug       bool
	Logger      Logger
	Repo        RepositoryManager
	Auther      Authenticator
	TokenHeader string
}

type UserControllerOption func(*UserController) *UserController

func NewUserController(opts ...UserControllerOption) *UserController {
	c := &UserController{
		Logger:      defLogger{},
		TokenHeader: DefaultTokenHeader,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in user controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in user controller...")
	}

	return c
}

func WithUserRepo(repo RepositoryManager) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Repo = repo
		return c
	}
}

func WithUserAuther(auther Authenticator) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Auther = auther
		return c
	}
}

func WithUserLogger(logger Logger) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Logger = logger
		return c
	}
}

func WithUserDebug(debug bool) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Debug = debug
		return c
	}
}

// RegisterRequest payload
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(6, 0),
		),
		validation.Field(
			&r.DisplayName,
			validation.Required,
			validation.Length(6, 12),
		),
	)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// Register creates an identity and issues its first token, echoed back in
// the auth header.
func (a *UserController) Register(c *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("Register body parse error", "error", err)
		return respondError(c, errors.Wrap(err, errors.CategoryBadInput, "malformed request body"))
	}

	if a.Debug {
		a.Logger.Debug("Register payload: %s", print.MaybePrettyJSON(payload))
	}

	if err := payload.Validate(); err != nil {
		return respondError(c, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	record := &User{
		Email:       payload.Email,
		DisplayName: payload.DisplayName,
	}

	created, err := a.Repo.Users().Register(c.UserContext(), record, payload.Password)
	if err != nil {
		a.Logger.Error("Register error", "error", err)
		return respondError(c, err)
	}

	token, err := a.Auther.Issue(c.UserContext(), IdentityFromUser(created))
	if err != nil {
		a.Logger.Error("Register token issue error", "error", err)
		return respondError(c, err)
	}

	c.Set(a.TokenHeader, token)
	return c.Status(fiber.StatusCreated).JSON(created.Public())
}

// Login verifies credentials and returns a fresh token in the auth header
func (a *UserController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("Login body parse error", "error", err)
		return respondError(c, errors.Wrap(err, errors.CategoryBadInput, "malformed request body"))
	}

	if err := payload.Validate(); err != nil {
		// malformed login input gets the same generic rejection as bad
		// credentials, nothing to learn from the response shape
		return respondError(c, ErrInvalidCredentials)
	}

	identity, token, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(a.TokenHeader, token)
	return c.JSON(fiber.Map{
		"id":           identity.ID(),
		"email":        identity.Email(),
		"display_name": identity.DisplayName(),
		"role":         identity.Role(),
	})
}

// Logout removes the presented token from the identity's valid set
func (a *UserController) Logout(c *fiber.Ctx) error {
	identity, ok := IdentityFromContext(c.UserContext())
	if !ok {
		return respondError(c, ErrUnauthenticated)
	}

	token, ok := TokenFromContext(c.UserContext())
	if !ok {
		return respondError(c, ErrUnauthenticated)
	}

	if err := a.Auther.Logout(c.UserContext(), identity, token); err != nil {
		a.Logger.Error("Logout error", "error", err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{})
}

// Show returns the public fields of an account
func (a *UserController) Show(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, errors.New("invalid user id", errors.CategoryBadInput))
	}

	user, err := a.Repo.Users().GetByID(c.UserContext(), id)
	if err != nil {
		if errors.IsNotFound(err) {
			return respondError(c, ErrIdentityNotFound)
		}
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"user": user.Public()})
}

// PostController serves the post and comment endpoints
type PostController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
}

type PostControllerOption func(*PostController) *PostController

func NewPostController(opts ...PostControllerOption) *PostController {
	c := &PostController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in post controller...")
	}

	return c
}

func WithPostRepo(repo RepositoryManager) PostControllerOption {
	return func(c *PostController) *PostController {
		c.Repo = repo
		return c
	}
}

func WithPostLogger(logger Logger) PostControllerOption {
	return func(c *PostController) *PostController {
		c.Logger = logger
		return c
	}
}

// CreatePostRequest payload
type CreatePostRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Body     string `json:"body"`
}

// CommentRequest payload
type CommentRequest struct {
	Comment string `json:"comment"`
}

// List returns all posts, newest first
func (a *PostController) List(c *fiber.Ctx) error {
	records, err := a.Repo.Posts().List(c.UserContext())
	if err != nil {
		a.Logger.Error("List posts error", "error", err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"posts": records})
}

// Search matches posts by title or author substring
func (a *PostController) Search(c *fiber.Ctx) error {
	records, err := a.Repo.Posts().Search(c.UserContext(), c.Query("query"))
	if err != nil {
		a.Logger.Error("Search posts error", "error", err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"posts": records})
}

// Create publishes a post owned by the authenticated identity's display
// name. Ownership is fixed here and never updated.
func (a *PostController) Create(c *fiber.Ctx) error {
	identity, ok := IdentityFromContext(c.UserContext())
	if !ok {
		return respondError(c, ErrUnauthenticated)
	}

	payload := new(CreatePostRequest)
	if err := c.BodyParser(payload); err != nil {
		return respondError(c, errors.Wrap(err, errors.CategoryBadInput, "malformed request body"))
	}

	record := &Post{
		Title:    payload.Title,
		Category: payload.Category,
		Body:     payload.Body,
		Author:   identity.DisplayName(),
	}

	created, err := a.Repo.Posts().Publish(c.UserContext(), record)
	if err != nil {
		a.Logger.Error("Create post error", "error", err)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": created})
}

// Show fetches a post and records the visit in the reader's history
func (a *PostController) Show(c *fiber.Ctx) error {
	identity, ok := IdentityFromContext(c.UserContext())
	if !ok {
		return respondError(c, ErrUnauthenticated)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, errors.New("invalid post id", errors.CategoryBadInput))
	}

	record, err := a.Repo.Posts().GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	uid, err := uuid.Parse(identity.ID())
	if err != nil {
		return respondError(c, errors.Wrap(err, errors.CategoryInternal, "identity has a malformed id"))
	}

	if err := a.Repo.Users().RecordPostVisit(c.UserContext(), uid, record.ID); err != nil {
		a.Logger.Error("Show post failed to record visit", "error", err)
		return respondError(c, errors.Wrap(err, errors.CategoryInternal, "failed to record post visit"))
	}

	return c.JSON(fiber.Map{"post": record})
}

// Update patches title, category, or body
func (a *PostController) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, errors.New("invalid post id", errors.CategoryBadInput))
	}

	fields := PostUpdate{}
	if err := c.BodyParser(&fields); err != nil {
		return respondError(c, errors.Wrap(err, errors.CategoryBadInput, "malformed request body"))
	}

	record, err := a.Repo.Posts().UpdateFields(c.UserContext(), id, fields)
	if err != nil {
		a.Logger.Error("Update post error", "error", err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"post": record})
}

// Delete removes a post. Only the owning display name may delete; a known
// identity that is not the owner gets an authorization failure, never an
// authentication one.
func (a *PostController) Delete(c *fiber.Ctx) error {
	identity, ok := IdentityFromContext(c.UserContext())
	if !ok {
		return respondError(c, ErrUnauthenticated)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, errors.New("invalid post id", errors.CategoryBadInput))
	}

	record, err := a.Repo.Posts().GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	if !IsOwner(identity, record.Author) {
		return respondError(c, ErrUnauthorized)
	}

	if err := a.Repo.Posts().DeleteByID(c.UserContext(), id); err != nil {
		a.Logger.Error("Delete post error", "error", err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "post deleted successfully"})
}

// AddComment appends a comment attributed to the identity's display name
func (a *PostController) AddComment(c *fiber.Ctx) error {
	identity, ok := IdentityFromContext(c.UserContext())
	if !ok {
		return respondError(c, ErrUnauthenticated)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, errors.New("invalid post id", errors.CategoryBadInput))
	}

	payload := new(CommentRequest)
	if err := c.BodyParser(payload); err != nil {
		return respondError(c, errors.Wrap(err, errors.CategoryBadInput, "malformed request body"))
	}

	comment, err := a.Repo.Posts().AddComment(c.UserContext(), id, &Comment{
		Body:      payload.Comment,
		CreatedBy: identity.DisplayName(),
	})
	if err != nil {
		a.Logger.Error("Add comment error", "error", err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"comment": comment})
}

// DeleteComment removes a comment from a post. The route carrying it is
// gated to admins.
func (a *PostController) DeleteComment(c *fiber.Ctx) error {
	postID, err := uuid.Parse(c.Params("postId"))
	if err != nil {
		return respondError(c, errors.New("invalid post id", errors.CategoryBadInput))
	}

	commentID, err := uuid.Parse(c.Params("commentId"))
	if err != nil {
		return respondError(c, errors.New("invalid comment id", errors.CategoryBadInput))
	}

	if err := a.Repo.Posts().RemoveComment(c.UserContext(), postID, commentID); err != nil {
		a.Logger.Error("Delete comment error", "error", err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "comment deleted successfully"})
}

// RegisterRoutes wires the API surface. The auth and admin middleware
// come in from the caller so transports and tests can swap them.
func RegisterRoutes(app fiber.Router, users *UserController, posts *PostController, requireAuth, requireAdmin fiber.Handler) {
	api := app.Group("/api")

	u := api.Group("/users")
	u.Post("/", users.Register)
	u.Post("/login", users.Login)
	u.Delete("/me/token", requireAuth, users.Logout)
	u.Get("/:id", requireAuth, users.Show)

	p := api.Group("/posts")
	p.Get("/", posts.List)
	p.Get("/search", posts.Search)
	p.Post("/", requireAuth, posts.Create)
	p.Get("/:id", requireAuth, posts.Show)
	p.Patch("/:id", requireAuth, posts.Update)
	p.Delete("/:id", requireAuth, posts.Delete)
	p.Post("/:id/comments", requireAuth, posts.AddComment)
	p.Delete("/:postId/comments/:commentId", requireAdmin, posts.DeleteComment)
}

// respondError maps the error taxonomy onto HTTP statuses. Auth errors
// keep their generic messages; internal details never leave the process.
func respondError(c *fiber.Ctx, err error) error {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		rich = errors.Wrap(err, errors.CategoryInternal, "an unexpected server error occurred")
	}

	status := statusForError(rich)
	message := rich.Message
	if status == fiber.StatusInternalServerError {
		message = "internal server error"
	}

	return c.Status(status).JSON(fiber.Map{"error": message})
}

func statusForError(rich *errors.Error) int {
	switch rich.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusBadRequest
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
