// Package oidc implements the OpenID Connect single sign-on flow: login
// redirect, provider callback with user provisioning, and logout.
package oidc
