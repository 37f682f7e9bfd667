package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-management/internal/core/ports"
)

// UserHandler handles HTTP requests for user records. Errors are returned to
// echo and rendered by the API error handler.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Create handles POST /user.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      createUserRequest  true  "User details"
// @Success      201   {object}  userEnvelope
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /user [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errInvalidPayload
	}

	user, err := h.service.CreateUser(c.Request().Context(), ports.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Stack:     req.Stack,
	})
	if err != nil {
		return failed(ActionCreate, err)
	}

	return c.JSON(http.StatusCreated, userEnvelope{
		Message: "New User Created",
		Data:    toUserResponse(user),
	})
}

// List handles GET /user.
//
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Success      200  {object}  userListEnvelope
// @Failure      500  {object}  map[string]string
// @Router       /user [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return failed(ActionList, err)
	}

	return c.JSON(http.StatusOK, userListEnvelope{
		Message: fmt.Sprintf("%d users", len(users)),
		Data:    toUserResponses(users),
	})
}

// GetByID handles GET /user/:id.
//
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userEnvelope
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /user/{id} [get]
func (h *UserHandler) GetByID(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := h.service.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return failed(ActionFetch, err)
	}
	return c.JSON(http.StatusOK, userEnvelope{Data: toUserResponse(user)})
}

// GetByName handles GET /users?firstName=.
//
// @Summary      Get a user by first name
// @Description  When several users share the first name the oldest record is returned.
// @Tags         users
// @Produce      json
// @Param        firstName  query     string  true  "Exact first name"
// @Success      200        {object}  userEnvelope
// @Failure      404        {object}  map[string]string
// @Failure      500        {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) GetByName(c echo.Context) error {
	name, err := queryFirstName(c)
	if err != nil {
		return err
	}

	user, err := h.service.GetUserByName(c.Request().Context(), name)
	if err != nil {
		return failed(ActionFetch, err)
	}
	return c.JSON(http.StatusOK, userEnvelope{Data: toUserResponse(user)})
}

// UpdateByID handles PUT /user/update/:id.
//
// @Summary      Update a user by id
// @Tags         users
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userEnvelope
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /user/update/{id} [put]
func (h *UserHandler) UpdateByID(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	req, err := bindPatch(c)
	if err != nil {
		return err
	}

	user, err := h.service.UpdateUserByID(c.Request().Context(), id, req.toPatch())
	if err != nil {
		return failed(ActionUpdate, err)
	}
	return c.JSON(http.StatusOK, userEnvelope{
		Message: "User updated successfully",
		Data:    toUserResponse(user),
	})
}

// UpdateByName handles PUT /user/update?firstName=.
//
// @Summary      Update a user by first name
// @Tags         users
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        firstName  query     string             true  "Exact first name"
// @Param        body       body      updateUserRequest  true  "Fields to change"
// @Success      200        {object}  userEnvelope
// @Failure      400        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Failure      422        {object}  map[string]string
// @Failure      500        {object}  map[string]string
// @Router       /user/update [put]
func (h *UserHandler) UpdateByName(c echo.Context) error {
	name, err := queryFirstName(c)
	if err != nil {
		return err
	}

	req, err := bindPatch(c)
	if err != nil {
		return err
	}

	user, err := h.service.UpdateUserByName(c.Request().Context(), name, req.toPatch())
	if err != nil {
		return failed(ActionUpdate, err)
	}
	return c.JSON(http.StatusOK, userEnvelope{
		Message: "User updated successfully",
		Data:    toUserResponse(user),
	})
}

// DeleteByID handles DELETE /user/delete/:id.
//
// @Summary      Delete a user by id
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userEnvelope
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /user/delete/{id} [delete]
func (h *UserHandler) DeleteByID(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteUserByID(c.Request().Context(), id); err != nil {
		return failed(ActionDelete, err)
	}
	return c.JSON(http.StatusOK, userEnvelope{Message: "User deleted successfully"})
}

// DeleteByName handles DELETE /user/delete?firstName=.
//
// @Summary      Delete a user by first name
// @Description  Removes only the oldest record with that first name.
// @Tags         users
// @Produce      json
// @Param        firstName  query     string  true  "Exact first name"
// @Success      200        {object}  userEnvelope
// @Failure      404        {object}  map[string]string
// @Failure      500        {object}  map[string]string
// @Router       /user/delete [delete]
func (h *UserHandler) DeleteByName(c echo.Context) error {
	name, err := queryFirstName(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteUserByName(c.Request().Context(), name); err != nil {
		return failed(ActionDelete, err)
	}
	return c.JSON(http.StatusOK, userEnvelope{Message: "User deleted successfully"})
}

// Welcome handles GET /.
func Welcome(c echo.Context) error {
	return c.String(http.StatusOK, "Welcome to A Simple User Management System API")
}

// pathID and queryFirstName only reject an absent or empty value. Anything
// else, whitespace included, is looked up as given.
func pathID(c echo.Context) (string, error) {
	id := c.Param("id")
	if id == "" {
		return "", errMissingID
	}
	return id, nil
}

func queryFirstName(c echo.Context) (string, error) {
	name := c.QueryParam("firstName")
	if name == "" {
		return "", errMissingFirstName
	}
	return name, nil
}

// bindPatch reads only the request body; query parameters address the record
// and must not leak into the patch.
func bindPatch(c echo.Context) (updateUserRequest, error) {
	var req updateUserRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return req, errInvalidPayload
	}
	return req, nil
}
