package logger

import (
	"time"

	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------------
// HTTP
// ---------------------------------------------------------------------------------

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }

// Family es la familia de recurso (primer segmento del path).
func Family(v string) zap.Field { return zap.String("family", v) }

// Attempt es el número de intento, base 1.
func Attempt(v int) zap.Field { return zap.Int("attempt", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func Bytes(v int) zap.Field              { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field        { return zap.String("client_ip", v) }

// IdempotencyKey registra la key de un POST reintentable.
func IdempotencyKey(v string) zap.Field { return zap.String("idempotency_key", v) }

// ---------------------------------------------------------------------------------
// NEGOCIO
// ---------------------------------------------------------------------------------

func TenantID(v string) zap.Field        { return zap.String("tenant_id", v) }
func AccountID(v string) zap.Field       { return zap.String("account_id", v) }
func PartnerID(v string) zap.Field       { return zap.String("partner_id", v) }
func MasterPartnerID(v string) zap.Field { return zap.String("master_partner_id", v) }
func MessageID(v string) zap.Field       { return zap.String("message_id", v) }
func EventType(v string) zap.Field       { return zap.String("event_type", v) }

// APIKey debe recibir la key ya enmascarada (util.MaskSecret).
func APIKey(masked string) zap.Field { return zap.String("api_key", masked) }

// ---------------------------------------------------------------------------------
// SISTEMA
// ---------------------------------------------------------------------------------

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

// Code es el código de un AppError.
func Code(v string) zap.Field { return zap.String("code", v) }

func Count(v int) zap.Field { return zap.Int("count", v) }
