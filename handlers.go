package main

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"attendance-scanner/models"
	"attendance-scanner/pkg/exclusion"
	"attendance-scanner/pkg/scan"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// storedPhotoName prefixes the uploaded filename with a ULID so repeated
// captures from the same camera app never overwrite each other.
func storedPhotoName(filename string) string {
	return ulid.Make().String() + "-" + filepath.Base(filename)
}

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/events", createEventHandler)
	authGroup.GET("/events", listEventsHandler)
	authGroup.GET("/events/:id", getEventHandler)
	authGroup.POST("/events/:id/scan", scanHandler)
	authGroup.POST("/events/:id/attendance", recordAttendanceHandler)
	authGroup.GET("/events/:id/attendance", listAttendanceHandler)
	authGroup.GET("/events/:id/meta", eventMetaHandler)
	authGroup.POST("/events/:id/exclusions", importEventExclusionsHandler)
	authGroup.GET("/events/:id/exclusions", listEventExclusionsHandler)
	authGroup.POST("/exclusions/global", importGlobalExclusionsHandler)
	authGroup.GET("/exclusions/global", listGlobalExclusionsHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string)})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	var user models.User
	if err := db.Where("username = ?", unameVal.(string)).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// eventFromParam resolves :id to an event row, writing the error response itself on failure.
func eventFromParam(c *gin.Context) (*models.Event, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return nil, false
	}
	var ev models.Event
	if err := db.First(&ev, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return nil, false
	}
	return &ev, true
}

func createEventHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Name     string `json:"name" binding:"required"`
		Venue    string `json:"venue"`
		StartsAt string `json:"starts_at"` // optional ISO8601
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev := models.Event{OwnerID: user.ID, Name: req.Name, Venue: req.Venue}
	if req.StartsAt != "" {
		if t, err := time.Parse(time.RFC3339, req.StartsAt); err == nil {
			ev.StartsAt = t
		}
	} else {
		ev.StartsAt = time.Now()
	}
	if err := db.Create(&ev).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": ev.ID})
}

// listEventsHandler lists events of the authenticated organizer (admin sees all)
func listEventsHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.Event
	q := db.Model(&models.Event{})
	if role != "administrator" {
		q = q.Where("owner_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func getEventHandler(c *gin.Context) {
	ev, ok := eventFromParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ev)
}

// scanHandler runs one scan end to end up to (but not including) the ledger
// write: save photo, crop to the alignment guide, OCR, candidate extraction,
// exclusion check. The client reviews the proposal and confirms via
// recordAttendanceHandler, or discards it and rescans; nothing is persisted
// here beyond the photo file itself.
func scanHandler(c *gin.Context) {
	ev, ok := eventFromParam(c)
	if !ok {
		return
	}
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo missing"})
		return
	}
	if file.Size > 10*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo too large (max 10MB)"})
		return
	}
	screenW, errW := strconv.ParseFloat(c.PostForm("screen_w"), 64)
	screenH, errH := strconv.ParseFloat(c.PostForm("screen_h"), 64)
	guideX, errX := strconv.ParseFloat(c.PostForm("guide_x"), 64)
	guideY, errY := strconv.ParseFloat(c.PostForm("guide_y"), 64)
	guideW, errGW := strconv.ParseFloat(c.PostForm("guide_w"), 64)
	guideH, errGH := strconv.ParseFloat(c.PostForm("guide_h"), 64)
	if errW != nil || errH != nil || errX != nil || errY != nil || errGW != nil || errGH != nil || screenW <= 0 || screenH <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid crop geometry"})
		return
	}

	dir := filepath.Join(uploadBaseDir(), "events", strconv.FormatUint(uint64(ev.ID), 10))
	if err := os.MkdirAll(dir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	fullPath := filepath.Join(dir, storedPhotoName(file.Filename))
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	img, err := imaging.Open(fullPath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		return
	}
	cropped := scan.Apply(img, screenW, screenH, scan.GuideRect{X: guideX, Y: guideY, Width: guideW, Height: guideH})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.JPEG); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode failed"})
		return
	}

	lines := scan.RecognizeLines(c.Request.Context(), recognizer, buf.Bytes())
	res, err := scan.BuildResult(lines, detector, time.Now().UTC())
	if errors.Is(err, scan.ErrNothingExtracted) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "nothing extracted", "image_path": fullPath})
		return
	}

	eventList, globalList, err := loadExclusionLists(ev.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "exclusion lookup failed"})
		return
	}
	scope := exclusion.Match(res.Name, eventList, globalList)
	c.JSON(http.StatusOK, gin.H{
		"result":      res,
		"blocked":     scope != exclusion.ScopeNone,
		"match_scope": scope,
		"image_path":  fullPath,
	})
}

// recordAttendanceHandler is the confirm step: it re-checks exclusion lists
// server-side (a stale client must not bypass a list updated mid-scan) and
// appends to the ledger.
func recordAttendanceHandler(c *gin.Context) {
	ev, ok := eventFromParam(c)
	if !ok {
		return
	}
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		SubjectIdentifier string  `json:"subject_identifier" binding:"required"`
		SubjectName       string  `json:"subject_name" binding:"required"`
		Status            string  `json:"status"`
		Notes             *string `json:"notes"`
		ImagePath         string  `json:"image_path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	eventList, globalList, err := loadExclusionLists(ev.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "exclusion lookup failed"})
		return
	}
	if scope := exclusion.Match(req.SubjectName, eventList, globalList); scope != exclusion.ScopeNone {
		c.JSON(http.StatusForbidden, gin.H{"error": "name is on an exclusion list", "match_scope": scope})
		return
	}
	rec, synced, err := recordAttendance(db, recordInput{
		EventID:           ev.ID,
		SubjectIdentifier: req.SubjectIdentifier,
		SubjectName:       req.SubjectName,
		RecordedBy:        user.Username,
		Status:            req.Status,
		Notes:             req.Notes,
		ImagePath:         req.ImagePath,
	})
	if err != nil {
		// retryable: nothing was persisted
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record failed", "retryable": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec, "counter_synced": synced})
}

func listAttendanceHandler(c *gin.Context) {
	ev, ok := eventFromParam(c)
	if !ok {
		return
	}
	var items []models.AttendanceRecord
	if err := db.Where("event_id = ?", ev.ID).Order("created_at desc").Limit(500).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func eventMetaHandler(c *gin.Context) {
	ev, ok := eventFromParam(c)
	if !ok {
		return
	}
	var meta models.EventAttendanceMetadata
	if err := db.Where("event_id = ?", ev.ID).First(&meta).Error; err != nil {
		// no scans yet
		c.JSON(http.StatusOK, gin.H{"event_id": ev.ID, "total_attendees": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": ev.ID, "total_attendees": meta.TotalAttendees, "last_updated": meta.LastUpdated})
}

// importEventExclusionsHandler accepts the plain-text list format (one name
// per line) and replaces the event-scoped list.
func importEventExclusionsHandler(c *gin.Context) {
	ev, ok := eventFromParam(c)
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	names := exclusion.ParseList(string(body))
	eid := ev.ID
	if err := replaceExclusionList(&eid, names); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": len(names)})
}

func listEventExclusionsHandler(c *gin.Context) {
	ev, ok := eventFromParam(c)
	if !ok {
		return
	}
	eventList, _, err := loadExclusionLists(ev.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"names": eventList})
}

func importGlobalExclusionsHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	names := exclusion.ParseList(string(body))
	if err := replaceExclusionList(nil, names); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": len(names)})
}

func listGlobalExclusionsHandler(c *gin.Context) {
	_, globalList, err := loadExclusionLists(0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"names": globalList})
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}
