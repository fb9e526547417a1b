package log

import "sync"

var (
	globalMu       sync.RWMutex
	globalProvider LoggerProvider
)

func provider() LoggerProvider {
	globalMu.RLock()
	p := globalProvider
	globalMu.RUnlock()
	if p != nil {
		return p
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalProvider == nil {
		zp := NewZerologProvider(LevelInfo)
		zp.InstallWarningSink()
		globalProvider = zp
	}
	return globalProvider
}

// SetGlobalProvider replaces the provider used by GetLogger and GetLoggerWithName.
func SetGlobalProvider(p LoggerProvider) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalProvider = p
}

// GetLogger returns the default logger of the global provider.
func GetLogger() Logger {
	return provider().GetLogger()
}

// GetLoggerWithName returns a component logger of the global provider.
func GetLoggerWithName(name string) Logger {
	return provider().GetLoggerWithName(name)
}
