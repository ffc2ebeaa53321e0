// Package types provides core types shared across the coterie framework.
// This package has ZERO dependencies on other coterie packages to avoid
// circular imports. All other packages should import types from here.
package types
