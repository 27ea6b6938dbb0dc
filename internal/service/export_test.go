package service

// Export for testing
var Paginate = paginate
