package internal

// Version is the bingobg release version
const Version = "0.3.0"
