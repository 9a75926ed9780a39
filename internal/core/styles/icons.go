package styles

// Tip: To find icons use https://github.com/loichyan/nerdfix

var (
	IconToastInfo    = "" // nf-fa-info_circle
	IconToastSuccess = "" // nf-fa-check_circle
	IconToastWarning = "" // nf-fa-warning
	IconToastError   = "" // nf-fa-times_circle
)

// Toast state markers.
var (
	IconPinned = "\U000F0403" // nf-md-pin
	IconPaused = ""     // nf-fa-pause
	IconQueued = ""     // nf-fa-clock_o
)
