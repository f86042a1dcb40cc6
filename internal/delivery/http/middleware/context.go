package middleware

import (
	"studio-server/internal/lmsapi"

	"github.com/gin-gonic/gin"
)

const credentialsKey = "lms_credentials"

// CredentialsFrom returns the tokens stored by the Credentials middleware.
func CredentialsFrom(c *gin.Context) (*lmsapi.Credentials, bool) {
	v, ok := c.Get(credentialsKey)
	if !ok {
		return nil, false
	}
	creds, ok := v.(*lmsapi.Credentials)
	return creds, ok
}
