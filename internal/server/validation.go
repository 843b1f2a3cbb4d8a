package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerTagNames sync.Once

// useJSONFieldNames makes validation errors report fields by their JSON names
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
}

// normalizer is implemented by requests that clean their fields before validation
type normalizer interface {
	normalize()
}

// bindJSON decodes, normalizes and validates the body, answering 400 with per-field details on failure
func bindJSON(c *gin.Context, dst any) bool {
	if err := sonic.ConfigStd.NewDecoder(c.Request.Body).Decode(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return false
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}

	err := binding.Validator.ValidateStruct(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[jsonFieldName(fe)] = fieldMessage(fe)
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": details})
		return false
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	return false
}

// jsonFieldName drops the struct name: "chatRequest.metadata.email" becomes "metadata.email"
func jsonFieldName(fe validator.FieldError) string {
	_, field, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return field
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
