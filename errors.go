package gatelab

import "errors"

var (
	ErrMountNotFound  = errors.New("gatelab: no mount container found")
	ErrAssetLoad      = errors.New("gatelab: failed to load model")
	ErrSceneMismatch  = errors.New("gatelab: model does not match profile")
	ErrFullscreen     = errors.New("gatelab: fullscreen request failed")
	ErrDisposed       = errors.New("gatelab: viewer disposed")
	ErrInvalidProfile = errors.New("gatelab: invalid profile")
)
