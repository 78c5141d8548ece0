// Package config provides configuration management for the ARIA showroom.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Stage     StageConfig     `mapstructure:"stage"`
	Avatar    AvatarConfig    `mapstructure:"avatar"`
	Camera    CameraConfig    `mapstructure:"camera"`
	Cinematic CinematicConfig `mapstructure:"cinematic"`
	Narration NarrationConfig `mapstructure:"narration"`
	Voice     VoiceConfig     `mapstructure:"voice"`
	Intro     IntroConfig     `mapstructure:"intro"`
}

// ServerConfig configures the UI bridge server
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	StaticDir    string `mapstructure:"static_dir"`
	TickHz       int    `mapstructure:"tick_hz"`
	FrameDivisor int    `mapstructure:"frame_divisor"` // broadcast every Nth tick
}

// StageConfig describes the showroom geometry and catalog
type StageConfig struct {
	RoomSize      [3]float32         `mapstructure:"room_size"`
	AnchorPoint   [3]float32         `mapstructure:"anchor_point"` // avatar home
	ApproachScale float32            `mapstructure:"approach_scale"`
	Light         LightConfig        `mapstructure:"light"`
	Collections   []CollectionConfig `mapstructure:"collections"`
}

// CollectionConfig describes one product collection on the showroom floor
type CollectionConfig struct {
	ID             string     `mapstructure:"id"`
	Name           string     `mapstructure:"name"`
	ModelPath      string     `mapstructure:"model_path"`
	StagePoint     [3]float32 `mapstructure:"stage_point"`
	FallbackSize   [3]float32 `mapstructure:"fallback_size"`
	NarrationTrack string     `mapstructure:"narration_track"`
	Colors         []string   `mapstructure:"colors"`
}

// LightConfig tunes the stage point light the guide modulates while speaking
type LightConfig struct {
	IdleIntensity     float32 `mapstructure:"idle_intensity"`
	SpeakingIntensity float32 `mapstructure:"speaking_intensity"`
	FlickerAmplitude  float32 `mapstructure:"flicker_amplitude"`
	FlickerSpeed      float32 `mapstructure:"flicker_speed"`
	Smoothing         float32 `mapstructure:"smoothing"` // per-frame lerp factor
}

// AvatarConfig tunes guide locomotion
type AvatarConfig struct {
	WalkSpeed           float32 `mapstructure:"walk_speed"`            // units per second
	MinWalkDuration     float32 `mapstructure:"min_walk_duration"`     // seconds
	TurnSpeed           float32 `mapstructure:"turn_speed"`            // damped rotation speed
	IdleTurnSpeed       float32 `mapstructure:"idle_turn_speed"`       // camera-facing drift while idle
	BreathAmplitude     float32 `mapstructure:"breath_amplitude"`      // idle bob height
	BreathFrequency     float32 `mapstructure:"breath_frequency"`      // Hz
	StrideFrequency     float32 `mapstructure:"stride_frequency"`      // step cycles per second
	WalkBobAmplitude    float32 `mapstructure:"walk_bob_amplitude"`    // vertical bounce while walking
	SwayAmplitude       float32 `mapstructure:"sway_amplitude"`        // hip sway while walking
	LeanAmplitude       float32 `mapstructure:"lean_amplitude"`        // forward lean while walking
	SpeakLeanAmplitude  float32 `mapstructure:"speak_lean_amplitude"`  // oscillating lean while speaking
	SafetyTimeoutFloor  float32 `mapstructure:"safety_timeout_floor"`  // seconds
	SafetyTimeoutFactor float32 `mapstructure:"safety_timeout_factor"` // multiple of walk duration
}

// CameraConfig tunes the camera choreographer
type CameraConfig struct {
	FOV          float32    `mapstructure:"fov"`
	HomePosition [3]float32 `mapstructure:"home_position"`
	HomeLook     [3]float32 `mapstructure:"home_look"`

	MoveRate      float32 `mapstructure:"move_rate"`       // exponential approach rate
	TourBlendRate float32 `mapstructure:"tour_blend_rate"` // exponential approach toward tour samples

	TransitionArcRatio float32 `mapstructure:"transition_arc_ratio"` // sideways midpoint per unit distance
	TransitionArcMax   float32 `mapstructure:"transition_arc_max"`
	TransitionLift     float32 `mapstructure:"transition_lift"`

	FollowSmoothing    float32 `mapstructure:"follow_smoothing"` // velocity filter, per frame
	FollowLead         float32 `mapstructure:"follow_lead"`      // look-ahead seconds of velocity
	ReturnGroundHeight float32 `mapstructure:"return_ground_height"`

	OrbitSensitivity float32 `mapstructure:"orbit_sensitivity"` // radians per drag unit
	ZoomSensitivity  float32 `mapstructure:"zoom_sensitivity"`
	OrbitMinScale    float32 `mapstructure:"orbit_min_scale"` // of bounding radius
	OrbitMaxScale    float32 `mapstructure:"orbit_max_scale"`
	PolarBand        float32 `mapstructure:"polar_band"` // allowed polar range around activation angle
}

// CinematicConfig tunes product-reveal shots
type CinematicConfig struct {
	OrbitRadiusScale     float32 `mapstructure:"orbit_radius_scale"` // of bounding radius
	OrbitHeight          float32 `mapstructure:"orbit_height"`
	OrbitSegments        int     `mapstructure:"orbit_segments"`
	OrbitDuration        float32 `mapstructure:"orbit_duration"` // seconds per loop
	LiftAmplitude        float32 `mapstructure:"lift_amplitude"`
	JitterAmplitude      float32 `mapstructure:"jitter_amplitude"`
	FramingDistanceScale float32 `mapstructure:"framing_distance_scale"`
	FramingHeight        float32 `mapstructure:"framing_height"`
	RevealDuration       float32 `mapstructure:"reveal_duration"` // framing transition seconds
	SettleDuration       float32 `mapstructure:"settle_duration"` // closing two-subject shot seconds
}

// NarrationConfig maps track ids to playback metadata
type NarrationConfig struct {
	Tracks map[string]TrackConfig `mapstructure:"tracks"`
}

// TrackConfig describes one narration track; audio decode happens in the
// browser, the Go side only needs timing and subtitle text.
type TrackConfig struct {
	Duration float64 `mapstructure:"duration"` // seconds
	Subtitle string  `mapstructure:"subtitle"`
}

// VoiceConfig configures the transcript feed and intent detection
type VoiceConfig struct {
	FeedURL  string              `mapstructure:"feed_url"`
	APIKey   string              `mapstructure:"api_key"`
	Debounce time.Duration       `mapstructure:"debounce"`
	Aliases  map[string][]string `mapstructure:"aliases"` // collection id -> spoken aliases
}

// IntroConfig scripts the opening camera sequence
type IntroConfig struct {
	NarrationTrack string     `mapstructure:"narration_track"`
	Shots          []ShotStep `mapstructure:"shots"`
}

// ShotStep is one scripted camera transition
type ShotStep struct {
	Position [3]float32 `mapstructure:"position"`
	Look     [3]float32 `mapstructure:"look"`
	Duration float32    `mapstructure:"duration"`
}

// Collection returns the catalog entry with the given id.
func (s StageConfig) Collection(id string) (CollectionConfig, bool) {
	for _, c := range s.Collections {
		if c.ID == id {
			return c, true
		}
	}
	return CollectionConfig{}, false
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8090,
			StaticDir:    "web",
			TickHz:       60,
			FrameDivisor: 2,
		},
		Stage: StageConfig{
			RoomSize:      [3]float32{16, 5, 18},
			AnchorPoint:   [3]float32{0, 0, 2},
			ApproachScale: 1.4,
			Light: LightConfig{
				IdleIntensity:     1.0,
				SpeakingIntensity: 2.0,
				FlickerAmplitude:  0.25,
				FlickerSpeed:      12.0,
				Smoothing:         0.1,
			},
			Collections: []CollectionConfig{
				{
					ID:             "meridian-sofa",
					Name:           "Meridian Sofa",
					ModelPath:      "assets/models/meridian_sofa.glb",
					StagePoint:     [3]float32{0, 0, -5},
					FallbackSize:   [3]float32{2.4, 0.9, 1.1},
					NarrationTrack: "meridian-sofa",
					Colors:         []string{"charcoal", "sand", "olive"},
				},
				{
					ID:             "halo-lounge",
					Name:           "Halo Lounge Chair",
					ModelPath:      "assets/models/halo_lounge.glb",
					StagePoint:     [3]float32{-4.5, 0, -3.5},
					FallbackSize:   [3]float32{0.9, 1.0, 0.95},
					NarrationTrack: "halo-lounge",
					Colors:         []string{"oxblood", "cream", "slate"},
				},
				{
					ID:             "tide-dining",
					Name:           "Tide Dining Set",
					ModelPath:      "assets/models/tide_dining.glb",
					StagePoint:     [3]float32{4.5, 0, -4},
					FallbackSize:   [3]float32{2.2, 0.78, 1.0},
					NarrationTrack: "tide-dining",
					Colors:         []string{"walnut", "ash", "ebony"},
				},
			},
		},
		Avatar: AvatarConfig{
			WalkSpeed:           1.1,
			MinWalkDuration:     3.6,
			TurnSpeed:           2.5,
			IdleTurnSpeed:       0.8,
			BreathAmplitude:     0.035,
			BreathFrequency:     1.6,
			StrideFrequency:     3.4,
			WalkBobAmplitude:    0.06,
			SwayAmplitude:       0.05,
			LeanAmplitude:       0.08,
			SpeakLeanAmplitude:  0.03,
			SafetyTimeoutFloor:  8.0,
			SafetyTimeoutFactor: 1.5,
		},
		Camera: CameraConfig{
			FOV:                42,
			HomePosition:       [3]float32{0, 1.7, 7},
			HomeLook:           [3]float32{0, 1, 0},
			MoveRate:           6.0,
			TourBlendRate:      6.0,
			TransitionArcRatio: 0.22,
			TransitionArcMax:   2.5,
			TransitionLift:     0.3,
			FollowSmoothing:    0.12,
			FollowLead:         0.85,
			ReturnGroundHeight: 0.35,
			OrbitSensitivity:   0.0045,
			ZoomSensitivity:    0.12,
			OrbitMinScale:      1.5,
			OrbitMaxScale:      3.8,
			PolarBand:          0.4,
		},
		Cinematic: CinematicConfig{
			OrbitRadiusScale:     2.3,
			OrbitHeight:          1.5,
			OrbitSegments:        6,
			OrbitDuration:        10.0,
			LiftAmplitude:        0.18,
			JitterAmplitude:      0.12,
			FramingDistanceScale: 2.4,
			FramingHeight:        1.45,
			RevealDuration:       2.6,
			SettleDuration:       2.0,
		},
		Narration: NarrationConfig{
			Tracks: map[string]TrackConfig{
				"intro": {
					Duration: 14.0,
					Subtitle: "Welcome to the ARIA showroom. Let me show you around.",
				},
				"meridian-sofa": {
					Duration: 11.0,
					Subtitle: "The Meridian sofa pairs a low profile with deep, modular seating.",
				},
				"halo-lounge": {
					Duration: 9.5,
					Subtitle: "The Halo lounge chair wraps a steam-bent frame around you.",
				},
				"tide-dining": {
					Duration: 10.0,
					Subtitle: "The Tide dining set seats six around a single slab of oak.",
				},
			},
		},
		Voice: VoiceConfig{
			FeedURL:  "",
			APIKey:   "",
			Debounce: 2500 * time.Millisecond,
			Aliases: map[string][]string{
				"meridian-sofa": {"sofa", "couch", "meridian"},
				"halo-lounge":   {"lounge", "chair", "armchair", "halo"},
				"tide-dining":   {"dining", "table", "dining set", "tide"},
			},
		},
		Intro: IntroConfig{
			NarrationTrack: "intro",
			Shots: []ShotStep{
				{Position: [3]float32{0, 6, 12}, Look: [3]float32{0, 1, 0}, Duration: 3.2},
				{Position: [3]float32{-8, 2.4, 4}, Look: [3]float32{-4.5, 0.8, -3.5}, Duration: 2.8},
				{Position: [3]float32{8, 2.2, 4}, Look: [3]float32{4.5, 0.8, -4}, Duration: 2.8},
				{Position: [3]float32{0, 1.8, -2}, Look: [3]float32{0, 0.8, -5}, Duration: 2.6},
				{Position: [3]float32{0, 1.7, 5.5}, Look: [3]float32{0, 1.2, 0}, Duration: 2.4},
			},
		},
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configDir, err := GetConfigDir()
	if err != nil {
		return cfg, err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("ARIASHOWROOM")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// Config file not found, use defaults and create one
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes the configuration to file
func Save(cfg *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	viper.Set("server", cfg.Server)
	viper.Set("stage", cfg.Stage)
	viper.Set("avatar", cfg.Avatar)
	viper.Set("camera", cfg.Camera)
	viper.Set("cinematic", cfg.Cinematic)
	viper.Set("narration", cfg.Narration)
	viper.Set("voice", cfg.Voice)
	viper.Set("intro", cfg.Intro)

	return viper.WriteConfigAs(filepath.Join(configDir, "config.yaml"))
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".ariashowroom"), nil
}
