package services

import "errors"

// Domain errors returned by services. Handlers map these onto HTTP status
// codes; messages are user-facing.
var (
	ErrCustomerNotFound   = errors.New("cliente no encontrado")
	ErrCustomerInactive   = errors.New("el cliente está inactivo")
	ErrCustomerHasLoans   = errors.New("el cliente tiene préstamos abiertos")
	ErrLoanNotFound       = errors.New("préstamo no encontrado")
	ErrLoanAlreadyPaid    = errors.New("el préstamo ya está pagado")
	ErrLoanDiscarded      = errors.New("el préstamo fue eliminado")
	ErrLoanHasPayments    = errors.New("el préstamo tiene pagos registrados y no puede eliminarse")
	ErrPaymentNotFound    = errors.New("pago no encontrado")
	ErrInvalidAmount      = errors.New("el monto debe ser mayor que cero")
	ErrInvalidPrincipal   = errors.New("el capital debe ser mayor que cero")
	ErrInvalidTerm        = errors.New("el plazo debe ser de al menos un mes")
	ErrInvalidRate        = errors.New("la tasa de interés no puede ser negativa")
	ErrOverpayment        = errors.New("el pago excede el saldo pendiente del préstamo")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrUserInactive       = errors.New("el usuario está inactivo")
	ErrInvalidCredentials = errors.New("correo o contraseña inválidos")
	ErrInvalidToken       = errors.New("token inválido o expirado")
	ErrForbidden          = errors.New("no tiene permisos para esta operación")
	ErrBackupNotFound     = errors.New("respaldo no encontrado")
)
