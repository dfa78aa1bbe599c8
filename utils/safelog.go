// utils/safelog.go
// ============================================================================
// SAFE LOGGING - masks client personal data in production
// ============================================================================

package utils

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

var (
	// IsProduction enables masking of emails, phone numbers and amounts.
	IsProduction = os.Getenv("GIN_MODE") == "release" ||
		os.Getenv("ENVIRONMENT") == "production" ||
		os.Getenv("ENV") == "production"

	LogLevel = getLogLevel()
)

const (
	LogLevelDebug = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func getLogLevel() int {
	return parseLogLevel(os.Getenv("LOG_LEVEL"))
}

func parseLogLevel(level string) int {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// ============================================================================
// MASKING PATTERNS
// ============================================================================

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	amountWithCurrencyRegex = regexp.MustCompile(`(€\s*\d+([.,]\d{1,2})?)|(\b\d+([.,]\d{1,2})?\s*(€|EUR\b))`)

	// international or local numbers with at least 8 digits
	phoneRegex = regexp.MustCompile(`\+?\d[\d\s.-]{7,}\d`)
)

// ============================================================================
// MASKING FUNCTIONS
// ============================================================================

// MaskString masks personal data in s when running in production.
func MaskString(input string) string {
	if !IsProduction {
		return input
	}

	result := emailRegex.ReplaceAllString(input, "***@***.***")
	result = amountWithCurrencyRegex.ReplaceAllString(result, "***€")
	result = phoneRegex.ReplaceAllString(result, "***PHONE***")
	return result
}

func MaskEmail(email string) string {
	if !IsProduction {
		return email
	}
	return "***@***.***"
}

func MaskName(name string) string {
	if !IsProduction || name == "" {
		return name
	}
	return string([]rune(name)[:1]) + "***"
}

// ============================================================================
// LEVELED LOGGING
// ============================================================================

func SafeLog(format string, args ...interface{}) {
	log.Print(MaskString(fmt.Sprintf(format, args...)))
}

func SafeDebug(format string, args ...interface{}) {
	if LogLevel > LogLevelDebug {
		return
	}
	log.Printf("[DEBUG] %s", MaskString(fmt.Sprintf(format, args...)))
}

func SafeInfo(format string, args ...interface{}) {
	if LogLevel > LogLevelInfo {
		return
	}
	log.Printf("[INFO] %s", MaskString(fmt.Sprintf(format, args...)))
}

func SafeWarn(format string, args ...interface{}) {
	if LogLevel > LogLevelWarn {
		return
	}
	log.Printf("[WARN] %s", MaskString(fmt.Sprintf(format, args...)))
}

func SafeError(format string, args ...interface{}) {
	log.Printf("[ERROR] %s", MaskString(fmt.Sprintf(format, args...)))
}

// ============================================================================
// DOMAIN LOGGING
// ============================================================================

// LogClientAction records a mutation on a client. Ids are not personal data.
func LogClientAction(action string, clientID int64, detail string) {
	if LogLevel > LogLevelInfo {
		return
	}
	if detail == "" {
		log.Printf("[Client] %s - Client: %d", action, clientID)
		return
	}
	log.Printf("[Client] %s - Client: %d %s", action, clientID, MaskString(detail))
}

func LogAuthAction(action string, username string, success bool) {
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	log.Printf("[Auth] %s - User: %s Status: %s", action, MaskName(username), status)
}

func LogAPIRequest(method, path, action, requestID string, statusCode int, duration string) {
	if action == "" {
		log.Printf("[API] %s %s - Status: %d Duration: %s Request: %s",
			method, path, statusCode, duration, requestID)
		return
	}
	log.Printf("[API] %s %s?action=%s - Status: %d Duration: %s Request: %s",
		method, path, action, statusCode, duration, requestID)
}

// ============================================================================
// STARTUP
// ============================================================================

func GetEnvMode() string {
	if IsProduction {
		return "production"
	}
	return "development"
}

func LogStartup(appName string, version string, port string) {
	log.Printf("🚀 %s v%s starting...", appName, version)
	log.Printf("   Mode: %s", GetEnvMode())
	log.Printf("   Port: %s", port)
	log.Printf("   Log Level: %d", LogLevel)
	if IsProduction {
		log.Printf("   ⚠️  Production mode: client personal data will be masked in logs")
	}
}
