// Package logger provee el logger zap de los binarios con scoping por contexto.
//
// La librería (client, transport) no usa el singleton: recibe un *zap.Logger
// por configuración y por defecto usa zap.NewNop(). El singleton existe para
// cmd/as2aas y cmd/as2aas-mock:
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En handlers del fake server:
//
//	log := logger.From(r.Context())
//	log.Info("partner inherited", logger.MasterPartnerID(id), logger.Count(n))
package logger
