package main

// trapSigInfo does nothing, there's no status signal on Windows.
func trapSigInfo() {}
