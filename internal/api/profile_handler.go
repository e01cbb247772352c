package api

import (
	"errors"
	"fmt"
	"net/http"

	"mtr/training-app/internal/service"

	"github.com/gin-gonic/gin"
)

// Cap profile photo uploads at 5 MiB.
const maxProfilePhotoBytes = 5 << 20

// ProfileHandler holds the profile service dependency.
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// --- Request Structs ---

type UpdateProfileRequest struct {
	Username   string `json:"username" binding:"required"`
	StravaLink string `json:"stravaLink"`
}

// --- Handler Methods ---

// GetProfile returns the authenticated user's profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}

	user, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve profile")
		}
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// UpdateProfile sets the editable profile fields.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.profileService.UpdateProfile(c.Request.Context(), userID, req.Username, req.StravaLink)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUsername):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update profile")
		}
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// UploadProfilePhoto accepts a multipart "photo" file and stores it.
func (h *ProfileHandler) UploadProfilePhoto(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "A 'photo' file field is required")
		return
	}
	if fileHeader.Size > maxProfilePhotoBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, "Photo exceeds the 5MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to read uploaded photo")
		return
	}
	defer file.Close()

	photoURL, err := h.profileService.UploadProfilePhoto(
		c.Request.Context(),
		userID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPhotoType):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to upload photo")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"profilePhoto": photoURL})
}
