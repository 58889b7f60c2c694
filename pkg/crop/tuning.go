package crop

// Tuning holds the magic numbers of the crop engine.
// They are static but centralized here so callers can override them in tests or config.
type Tuning struct {
	InitialFraction float64 `json:"initial_fraction"` // Default: 0.8 (share of the viewport the initial box fills)
	ZoomStep        float64 `json:"zoom_step"`        // Default: 1.2
	MinScale        float64 `json:"min_scale"`        // Default: 0.5
	MaxScale        float64 `json:"max_scale"`        // Default: 3.0
	MaxOffset       float64 `json:"max_offset"`       // Default: 200 (flat bound on image drag, px)
	JPEGQuality     float64 `json:"jpeg_quality"`     // Default: 0.9
	MaxUploadBytes  int64   `json:"max_upload_bytes"` // Default: 5MB

	// Face detection (avatar suggestions)
	FaceScaleFactor      float64 `json:"face_scale_factor"`       // Default: 1.1 (pigo internal)
	FaceShiftFactor      float64 `json:"face_shift_factor"`       // Default: 0.1 (stride)
	FaceMinSizePct       int     `json:"face_min_size_pct"`       // Default: 5 (% of min dimension)
	FaceIoUThreshold     float64 `json:"face_iou_threshold"`      // Default: 0.2 (clustering)
	FaceDetectConfidence float32 `json:"face_detect_confidence"`  // Default: 5.0
	FacePadding          float64 `json:"face_padding"`            // Default: 2.5 (crop side as multiple of face size)
}

// DefaultTuning returns the standard crop engine values.
func DefaultTuning() Tuning {
	return Tuning{
		InitialFraction:      0.8,
		ZoomStep:             1.2,
		MinScale:             0.5,
		MaxScale:             3.0,
		MaxOffset:            200,
		JPEGQuality:          0.9,
		MaxUploadBytes:       5 * 1024 * 1024,
		FaceScaleFactor:      1.1,
		FaceShiftFactor:      0.1,
		FaceMinSizePct:       5,
		FaceIoUThreshold:     0.2,
		FaceDetectConfidence: 5.0,
		FacePadding:          2.5,
	}
}
