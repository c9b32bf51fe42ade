package model

// ExplicitStatus classifies the explicitness of a song, or of an album as
// the aggregate its server reports over the album's songs.
type ExplicitStatus string

const (
	// ExplicitStatusNoData means no explicitness data is set.
	ExplicitStatusNoData ExplicitStatus = "no_data"
	// ExplicitStatusClean means explicitly clean.
	ExplicitStatusClean ExplicitStatus = "clean"
	// ExplicitStatusExplicit means explicitly explicit.
	ExplicitStatusExplicit ExplicitStatus = "explicit"
)

// explicitStatusTokens maps wire tokens to statuses. The empty token is
// valid and means no data.
var explicitStatusTokens = map[string]ExplicitStatus{
	"":         ExplicitStatusNoData,
	"clean":    ExplicitStatusClean,
	"explicit": ExplicitStatusExplicit,
}

// ExplicitStatusFromToken decodes a wire token. Unrecognized tokens fall
// back to ExplicitStatusNoData; servers are free to invent values and that
// must never fail a decode.
func ExplicitStatusFromToken(token string) ExplicitStatus {
	if s, ok := explicitStatusTokens[token]; ok {
		return s
	}
	return ExplicitStatusNoData
}

// Token returns the wire token for the status.
func (s ExplicitStatus) Token() string {
	switch s {
	case ExplicitStatusClean:
		return "clean"
	case ExplicitStatusExplicit:
		return "explicit"
	default:
		return ""
	}
}

// ServerColor is the color tag a user picked for a server. Opaque to the
// library core; the presentation layer resolves it to actual pixels.
type ServerColor string

const (
	ColorBlue         ServerColor = "blue"
	ColorRed          ServerColor = "red"
	ColorGreen        ServerColor = "green"
	ColorYellow       ServerColor = "yellow"
	ColorCyan         ServerColor = "cyan"
	ColorMagenta      ServerColor = "magenta"
	ColorOrange       ServerColor = "orange"
	ColorLightBlue    ServerColor = "light_blue"
	ColorLightRed     ServerColor = "light_red"
	ColorLightGreen   ServerColor = "light_green"
	ColorLightYellow  ServerColor = "light_yellow"
	ColorLightCyan    ServerColor = "light_cyan"
	ColorLightMagenta ServerColor = "light_magenta"
	ColorLightOrange  ServerColor = "light_orange"
	ColorBlack        ServerColor = "black"
	ColorGray         ServerColor = "gray"
	ColorLightGray    ServerColor = "light_gray"
	ColorWhite        ServerColor = "white"
)

var serverColors = map[ServerColor]bool{
	ColorBlue: true, ColorRed: true, ColorGreen: true, ColorYellow: true,
	ColorCyan: true, ColorMagenta: true, ColorOrange: true,
	ColorLightBlue: true, ColorLightRed: true, ColorLightGreen: true,
	ColorLightYellow: true, ColorLightCyan: true, ColorLightMagenta: true,
	ColorLightOrange: true, ColorBlack: true, ColorGray: true,
	ColorLightGray: true, ColorWhite: true,
}

// ServerColorFromToken decodes a stored color token, defaulting to blue for
// anything unrecognized so a stale database row never breaks loading.
func ServerColorFromToken(token string) ServerColor {
	if serverColors[ServerColor(token)] {
		return ServerColor(token)
	}
	return ColorBlue
}

// ServerIcon is the icon tag a user picked for a server, drawn over the
// server color as a colorblindness aid. Opaque to the library core.
type ServerIcon string

const (
	IconNone      ServerIcon = "none"
	IconHome      ServerIcon = "home"
	IconCheck     ServerIcon = "check"
	IconPerson    ServerIcon = "person"
	IconDateRange ServerIcon = "date_range"
	IconFavorite  ServerIcon = "favorite"
	IconBuild     ServerIcon = "build"
	IconPlayArrow ServerIcon = "play_arrow"
	IconPhone     ServerIcon = "phone"
)

var serverIcons = map[ServerIcon]bool{
	IconNone: true, IconHome: true, IconCheck: true, IconPerson: true,
	IconDateRange: true, IconFavorite: true, IconBuild: true,
	IconPlayArrow: true, IconPhone: true,
}

// ServerIconFromToken decodes a stored icon token, defaulting to none.
func ServerIconFromToken(token string) ServerIcon {
	if serverIcons[ServerIcon(token)] {
		return ServerIcon(token)
	}
	return IconNone
}
