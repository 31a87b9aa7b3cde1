package handlers

import (
	"net/http"

	"campushub/models"
	"campushub/services/student"
	"campushub/utils"

	"github.com/gin-gonic/gin"
)

var studentService student.StudentService

// SetStudentService injects the student service used by the package-level
// account handlers.
func SetStudentService(s student.StudentService) {
	studentService = s
}

// RegisterStudentHandler creates a new account and returns an auth token.
func RegisterStudentHandler(c *gin.Context) {
	var reg models.StudentRegistration
	if err := c.ShouldBindJSON(&reg); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	resp, err := studentService.Register(reg)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "registration failed", err.Error())
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AuthenticateStudentHandler verifies credentials and returns an auth token.
func AuthenticateStudentHandler(c *gin.Context) {
	var creds struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&creds); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	resp, err := studentService.Authenticate(creds.Email, creds.Password)
	if err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "authentication failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetOwnProfileHandler returns the authenticated account.
func GetOwnProfileHandler(c *gin.Context) {
	st, err := studentService.GetStudentByID(c.GetString("studentID"))
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "account not found", err.Error())
		return
	}
	c.JSON(http.StatusOK, st)
}

// UpdateFCMTokenHandler stores the device token for payment pushes.
func UpdateFCMTokenHandler(c *gin.Context) {
	var input struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	if err := studentService.UpdateFCMToken(c.GetString("studentID"), input.Token); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to update device token", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "device token updated"})
}
