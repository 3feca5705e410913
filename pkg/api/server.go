// Package api provides the REST API server for abcseq
package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/notefold/abcseq/pkg/abc"
	"github.com/notefold/abcseq/pkg/melody"
	"github.com/notefold/abcseq/pkg/midifile"
	"github.com/notefold/abcseq/pkg/sequence"
)

// @title abcseq API
// @version 1.0
// @description API for converting between ABC notation, note sequences and MIDI
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/parse", handleParse)
		v1.POST("/serialize", handleSerialize)
		v1.POST("/melody", handleMelody)
		v1.POST("/convert/abc2midi", handleABCToMIDI)
		v1.POST("/convert/midi2abc", handleMIDIToABC)
		v1.GET("/formats", listFormats)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r.Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "abcseq",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the supported formats and conversion paths
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats": []string{"abc", "sequence", "midi"},
		"conversions": []string{
			"abc -> sequence",
			"sequence -> abc",
			"abc -> midi",
			"midi -> abc",
		},
	})
}

// ParseRequest is the body for the parse endpoint.
type ParseRequest struct {
	ABC string  `json:"abc" binding:"required"`
	QPM float64 `json:"qpm"`
}

// handleParse godoc
// @Summary Parse ABC notation
// @Description Parses an ABC note body or full tune into a note sequence
// @Tags codec
// @Accept json
// @Produce json
// @Param request body ParseRequest true "ABC text and optional tempo"
// @Success 200 {object} sequence.NoteSequence
// @Failure 400 {object} map[string]string
// @Router /api/v1/parse [post]
func handleParse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.QPM == 0 {
		req.QPM = sequence.DefaultQPM
	}

	seq, err := abc.Parse(req.ABC, req.QPM)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, seq)
}

// SerializeRequest is the body for the serialize and melody endpoints.
type SerializeRequest struct {
	Sequence *sequence.NoteSequence `json:"sequence" binding:"required"`
	Title    string                 `json:"title"`
}

// handleSerialize godoc
// @Summary Serialize a note sequence
// @Description Renders a note sequence as ABC notation
// @Tags codec
// @Accept json
// @Produce json
// @Param request body SerializeRequest true "Sequence and optional title"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/v1/serialize [post]
func handleSerialize(c *gin.Context) {
	var req SerializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"abc": abc.Serialize(req.Sequence, req.Title)})
}

// handleMelody godoc
// @Summary Extract a monophonic melody
// @Description Reduces a polyphonic sequence to a single melodic line
// @Tags codec
// @Accept json
// @Produce json
// @Param request body SerializeRequest true "Sequence to reduce"
// @Success 200 {object} sequence.NoteSequence
// @Failure 400 {object} map[string]string
// @Router /api/v1/melody [post]
func handleMelody(c *gin.Context) {
	var req SerializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, melody.Extract(req.Sequence))
}

// handleABCToMIDI godoc
// @Summary Convert ABC to MIDI
// @Description Upload an .abc file and receive a MIDI file
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "ABC file to convert"
// @Param qpm query number false "Tempo in quarter notes per minute (default 120)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/abc2midi [post]
func handleABCToMIDI(c *gin.Context) {
	data, filename, ok := readUpload(c)
	if !ok {
		return
	}

	qpm := float64(sequence.DefaultQPM)
	if v, err := parseQPMQuery(c); err == nil && v > 0 {
		qpm = v
	}

	seq, err := abc.Parse(string(data), qpm)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(seq.Notes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid notes in input"})
		return
	}

	result, err := midifile.FromSequence(seq)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sendAttachment(c, result, outputName(filename, ".mid"), "audio/midi")
}

// handleMIDIToABC godoc
// @Summary Convert MIDI to ABC
// @Description Upload a MIDI file and receive an .abc file
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "MIDI file to convert"
// @Param title query string false "Tune title for the T: header"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/midi2abc [post]
func handleMIDIToABC(c *gin.Context) {
	data, filename, ok := readUpload(c)
	if !ok {
		return
	}

	seq, err := midifile.ToSequence(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	text := abc.Serialize(seq, c.Query("title"))
	sendAttachment(c, []byte(text), outputName(filename, ".abc"), "text/vnd.abc")
}

func readUpload(c *gin.Context) ([]byte, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}
	return data, header.Filename, true
}

func parseQPMQuery(c *gin.Context) (float64, error) {
	var qpm float64
	_, err := fmt.Sscanf(c.DefaultQuery("qpm", "120"), "%g", &qpm)
	return qpm, err
}

func outputName(inputName, ext string) string {
	if i := strings.LastIndex(inputName, "."); i > 0 {
		return inputName[:i] + ext
	}
	return "converted" + ext
}

func sendAttachment(c *gin.Context, data []byte, name, contentType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	c.Data(http.StatusOK, contentType, data)
}
