//go:generate mockgen -source=../validator.go        -destination=./mock_validator.go        -package=mocks
//go:generate mockgen -source=../home_assistant.go   -destination=./mock_home_assistant.go   -package=mocks
//go:generate mockgen -source=../order_submitter.go  -destination=./mock_order_submitter.go  -package=mocks
//go:generate mockgen -source=../logger.go           -destination=./mock_logger.go           -package=mocks
//go:generate mockgen -source=../message_consumer.go -destination=./mock_message_consumer.go -package=mocks

package mocks
