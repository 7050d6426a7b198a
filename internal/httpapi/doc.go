// Package httpapi serves the provisioning engine over JSON HTTP.
//
// Routes:
//
//	GET    /                          liveness
//	GET    /healthz                   backend health
//	POST   /send-otp                  issue a standalone code
//	POST   /verify-otp                consume a standalone code
//	GET    /smtp-check                probe mail transports
//	POST   /register/start            open a registration session
//	POST   /register/resend           reissue the session code
//	POST   /register/verify           verify the session code
//	POST   /register/password         set the password, reveal the phrase
//	GET    /register/phrase           show the phrase again
//	POST   /register/phrase/confirm   request the recall challenge
//	POST   /register/phrase/verify    answer the challenge
//	POST   /register/finalize         create the account
//	GET    /register/status           current step
//	DELETE /register/session          abandon the session
//	POST   /login                     password login
//	GET    /metrics                   Prometheus text
//
// Registration routes take the ticket from "Authorization: Bearer".
package httpapi
