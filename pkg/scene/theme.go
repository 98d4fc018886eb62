package scene

// Theme holds every color a scene uses, as CSS color strings. The default
// palette is authored in OKLCH and must be normalized before raster capture.
type Theme struct {
	Background string
	Panel      string
	PanelHead  string
	Border     string
	Muted      string
	Label      string
	Heading    string
	Value      string
	Key        string
	DictHead   string
	Text       string

	StackFill, StackStroke, StackText string
	QueueFill, QueueStroke, QueueText string
	ChipFill, ChipStroke, ChipText    string
	HeapFill, HeapStroke, HeapText    string
	HeapRoot, HeapRootLine, HeapRootT string
	NodeFill, NodeStroke, NodeText    string
	Arrow                             string

	BannerFill, BannerStroke, BannerText string

	// Graph fills use the fixed traversal palette.
	GraphActive, GraphFrontier, GraphVisited, GraphDefault string
	GraphStroke, GraphEdge, GraphLabel                     string
}

// DefaultTheme is the dark palette of the web player.
var DefaultTheme = Theme{
	Background: "oklch(0.13 0.028 261.692)",
	Panel:      "oklch(0.21 0.034 264.665)",
	PanelHead:  "oklch(0.278 0.033 256.848)",
	Border:     "oklch(0.373 0.034 259.733)",
	Muted:      "oklch(0.551 0.027 264.364)",
	Label:      "oklch(0.872 0.01 258.338)",
	Heading:    "oklch(0.707 0.022 261.325)",
	Value:      "oklch(0.871 0.15 154.449)",
	Key:        "oklch(0.871 0.15 154.449)",
	DictHead:   "oklch(0.828 0.189 84.429)",
	Text:       "#ffffff",

	StackFill: "oklch(0.946 0.033 307.174)", StackStroke: "oklch(0.714 0.203 305.504)", StackText: "oklch(0.381 0.176 304.987)",
	QueueFill: "oklch(0.962 0.044 156.743)", QueueStroke: "oklch(0.792 0.209 151.711)", QueueText: "oklch(0.393 0.095 152.535)",
	ChipFill: "oklch(0.932 0.032 255.585)", ChipStroke: "oklch(0.707 0.165 254.624)", ChipText: "oklch(0.379 0.146 265.522)",
	HeapFill: "oklch(0.373 0.034 259.733)", HeapStroke: "oklch(0.446 0.03 256.802)", HeapText: "#ffffff",
	HeapRoot: "oklch(0.973 0.071 103.193)", HeapRootLine: "oklch(0.852 0.199 91.936)", HeapRootT: "oklch(0.421 0.095 57.708)",
	NodeFill: "oklch(0.951 0.026 236.824)", NodeStroke: "oklch(0.746 0.16 232.661)", NodeText: "oklch(0.391 0.09 240.876)",
	Arrow: "oklch(0.746 0.16 232.661)",

	BannerFill: "oklch(0.266 0.065 152.934)", BannerStroke: "oklch(0.448 0.119 151.328)", BannerText: "oklch(0.792 0.209 151.711)",

	GraphActive:   "#d62728",
	GraphFrontier: "#ffd700",
	GraphVisited:  "#ff7f0e",
	GraphDefault:  "#0f172a",
	GraphStroke:   "#38bdf8",
	GraphEdge:     "oklch(0.551 0.027 264.364)",
	GraphLabel:    "#ffffff",
}
