package repository

// Export for testing
var FormatTime = formatTime
var ParseTime = parseTime
