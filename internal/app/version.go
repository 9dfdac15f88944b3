package app

// Build information, overridden at link time with -ldflags "-X github.com/haierkeys/wicky/internal/app.Version=..."
// 版本信息，构建时通过 ldflags 注入
var (
	Version   = "0.3.0"
	GitTag    = "dev"
	BuildTime = "unknown"
)

// Name 应用名称
const Name = "Wicky"
