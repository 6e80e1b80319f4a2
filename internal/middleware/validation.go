package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"todoapi/internal/apperr"
	"todoapi/internal/dto"

	"github.com/gin-gonic/gin"
)

const maxTitleLen = 255

const (
	contextKeyCreate = "todo.create"
	contextKeyUpdate = "todo.update"
	contextKeyID     = "todo.id"
)

const (
	msgTitleRequired  = "Title is required and must be a non-empty string"
	msgTitleNonEmpty  = "Title must be a non-empty string"
	msgTitleTooLong   = "Title must be less than 255 characters"
	msgDescription    = "Description must be a string"
	msgCompleted      = "Completed must be a boolean"
	msgNoUpdateFields = "At least one field (title, description, or completed) must be provided"
	msgInvalidID      = "Invalid ID parameter"
	msgInvalidJSON    = "Request body must be valid JSON"
	msgBodyTooLarge   = "Request body is too large"
)

// ValidateCreate checks a POST body and stores a trimmed dto.CreateTodoInput on the context.
func ValidateCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := readObject(c)
		if !ok {
			return
		}

		title, isString := body["title"].(string)
		if !isString || strings.TrimSpace(title) == "" {
			abortValidation(c, msgTitleRequired)
			return
		}
		if utf8.RuneCountInString(title) > maxTitleLen {
			abortValidation(c, msgTitleTooLong)
			return
		}
		in := dto.CreateTodoInput{Title: strings.TrimSpace(title)}

		if desc, present, ok := optionalString(body, "description"); !ok {
			abortValidation(c, msgDescription)
			return
		} else if present {
			desc = strings.TrimSpace(desc)
			in.Description = &desc
		}
		if done, present, ok := optionalBool(body, "completed"); !ok {
			abortValidation(c, msgCompleted)
			return
		} else if present {
			in.Completed = &done
		}

		c.Set(contextKeyCreate, in)
		c.Next()
	}
}

// ValidateUpdate checks a PUT body (partial update) and stores a dto.UpdateTodoInput on the context.
func ValidateUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := readObject(c)
		if !ok {
			return
		}

		var in dto.UpdateTodoInput
		if raw, hasTitle := body["title"]; hasTitle {
			title, isString := raw.(string)
			if !isString || strings.TrimSpace(title) == "" {
				abortValidation(c, msgTitleNonEmpty)
				return
			}
			if utf8.RuneCountInString(title) > maxTitleLen {
				abortValidation(c, msgTitleTooLong)
				return
			}
			title = strings.TrimSpace(title)
			in.Title = &title
		}
		if desc, present, ok := optionalString(body, "description"); !ok {
			abortValidation(c, msgDescription)
			return
		} else if present {
			desc = strings.TrimSpace(desc)
			in.Description = &desc
		}
		if done, present, ok := optionalBool(body, "completed"); !ok {
			abortValidation(c, msgCompleted)
			return
		} else if present {
			in.Completed = &done
		}
		if in.Patch().Empty() {
			abortValidation(c, msgNoUpdateFields)
			return
		}

		c.Set(contextKeyUpdate, in)
		c.Next()
	}
}

// ValidateID parses the :id path parameter as a base-10 integer.
func ValidateID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			abortValidation(c, msgInvalidID)
			return
		}
		c.Set(contextKeyID, id)
		c.Next()
	}
}

// CreateInput returns the body stored by ValidateCreate.
func CreateInput(c *gin.Context) dto.CreateTodoInput {
	in, _ := c.MustGet(contextKeyCreate).(dto.CreateTodoInput)
	return in
}

// UpdateInput returns the body stored by ValidateUpdate.
func UpdateInput(c *gin.Context) dto.UpdateTodoInput {
	in, _ := c.MustGet(contextKeyUpdate).(dto.UpdateTodoInput)
	return in
}

// ID returns the path id stored by ValidateID.
func ID(c *gin.Context) int64 {
	id, _ := c.MustGet(contextKeyID).(int64)
	return id
}

// readObject decodes the body into a generic JSON object. An empty body or a
// non-object JSON value yields an empty object.
func readObject(c *gin.Context) (map[string]any, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortValidation(c, msgBodyTooLarge)
			return nil, false
		}
		_ = c.Error(err)
		c.Abort()
		return nil, false
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return map[string]any{}, true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		abortValidation(c, msgInvalidJSON)
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}, true
	}
	return obj, true
}

// optionalString reports the value, whether the key was present, and whether it was a string.
func optionalString(body map[string]any, key string) (string, bool, bool) {
	v, present := body[key]
	if !present {
		return "", false, true
	}
	s, ok := v.(string)
	return s, true, ok
}

func optionalBool(body map[string]any, key string) (bool, bool, bool) {
	v, present := body[key]
	if !present {
		return false, false, true
	}
	b, ok := v.(bool)
	return b, true, ok
}

func abortValidation(c *gin.Context, msg string) {
	_ = c.Error(apperr.Validation(msg))
	c.Abort()
}
