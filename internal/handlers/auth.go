package handlers

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/logger"
	"bookshelf/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func handleHome(c *gin.Context) {
	if _, exists := c.Get("session"); exists {
		c.Redirect(http.StatusFound, "/books")
		return
	}

	mode := models.ParseAuthMode(c.Query("mode"))
	c.HTML(http.StatusOK, "auth.html", gin.H{
		"Title": "Bookshelf",
		"Mode":  mode.String(),
	})
}

func handleLogin(c *gin.Context) {
	svc := services(c)

	email := c.PostForm("email")
	password := c.PostForm("password")

	errors := make(map[string]string)
	if !emailRegex.MatchString(email) {
		errors["email"] = "Please enter a valid email address"
	}
	if password == "" {
		errors["password"] = "Password is required"
	}

	if len(errors) > 0 {
		c.HTML(http.StatusBadRequest, "auth.html", gin.H{
			"Title":  "Bookshelf",
			"Mode":   models.ModeLogin.String(),
			"Errors": errors,
			"Email":  email,
		})
		return
	}

	id, _, err := svc.Sessions.Login(c.Request.Context(), email, password)
	if err != nil {
		// Auth failures stay on the form; nothing below the session
		// controller has been touched.
		c.HTML(http.StatusUnauthorized, "auth.html", gin.H{
			"Title":     "Bookshelf",
			"Mode":      models.ModeLogin.String(),
			"AuthError": "Invalid email or password",
			"Email":     email,
		})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("session_id", id, int(svc.Config.SessionDuration.Seconds()), "/", "", true, true)
	c.Redirect(http.StatusFound, "/books")
}

func handleSignup(c *gin.Context) {
	svc := services(c)

	email := c.PostForm("email")
	password := c.PostForm("password")

	errors := make(map[string]string)
	if !emailRegex.MatchString(email) {
		errors["email"] = "Please enter a valid email address"
	}
	if len(password) < 8 {
		errors["password"] = "Password must be at least 8 characters"
	}

	if len(errors) > 0 {
		c.HTML(http.StatusBadRequest, "auth.html", gin.H{
			"Title":  "Bookshelf",
			"Mode":   models.ModeSignup.String(),
			"Errors": errors,
			"Email":  email,
		})
		return
	}

	pending, err := svc.Sessions.Signup(c.Request.Context(), email, password)
	if err != nil {
		c.HTML(http.StatusBadRequest, "auth.html", gin.H{
			"Title":     "Bookshelf",
			"Mode":      models.ModeSignup.String(),
			"AuthError": err.Error(),
			"Email":     email,
		})
		return
	}

	// Signing up never signs in. Flip back to the login form either way.
	notice := "Account created. You can sign in now."
	if pending {
		notice = "Registration successful! Check your email and confirm your account before signing in."
	}
	c.HTML(http.StatusOK, "auth.html", gin.H{
		"Title":  "Bookshelf",
		"Mode":   models.ModeLogin.String(),
		"Notice": notice,
	})
}

func handleLogout(c *gin.Context) {
	svc := services(c)

	id := c.GetString("session_id")
	if err := svc.Sessions.Logout(c.Request.Context(), id); err != nil {
		// Sign-out was refused by the backend; the session is still
		// live, so send the user back to their books.
		logger.Warn("logout rejected", "session_id", id, "error", err)
		c.Redirect(http.StatusFound, "/books?error=logout")
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("session_id", "", -1, "/", "", true, true)
	c.Redirect(http.StatusFound, "/")
}
