package logger

import "go.uber.org/zap"

// S retorna el SugaredLogger del singleton. La CLI lo usa para mensajes
// printf-style: logger.S().Debugf("tenant scope %s", id).
func S() *zap.SugaredLogger {
	return L().Sugar()
}
