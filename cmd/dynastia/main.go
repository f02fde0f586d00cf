package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/MarouaBoud/Dynastia/internal/client/api"
	"github.com/MarouaBoud/Dynastia/internal/client/biometric"
	"github.com/MarouaBoud/Dynastia/internal/client/securestore"
	"github.com/MarouaBoud/Dynastia/internal/client/session"
	dto "github.com/MarouaBoud/Dynastia/internal/http/dto/auth"
	"github.com/MarouaBoud/Dynastia/internal/security/secretbox"
)

func main() {
	var (
		serverURL = envOr("DYNASTIA_SERVER_URL", "http://localhost:8080")
		statePath = envOr("DYNASTIA_STATE_FILE", defaultStatePath())
		out       = envOr("DYNASTIA_OUT", "text")
		timeout   = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "dynastia",
		Short: "CLI de Dynastia: cuenta, sesión y segundo factor",
	}
	root.PersistentFlags().StringVar(&serverURL, "server", serverURL, "URL base del servidor (env DYNASTIA_SERVER_URL)")
	root.PersistentFlags().StringVar(&statePath, "store", statePath, "Archivo de estado local (env DYNASTIA_STATE_FILE)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")
	root.PersistentFlags().DurationVar(&timeout, "timeout", timeout, "Timeout por comando")

	// Con DYNASTIA_STATE_KEY seteada el archivo de estado queda cifrado.
	var stateBox *secretbox.Box
	if k := os.Getenv("DYNASTIA_STATE_KEY"); k != "" {
		b, err := secretbox.Parse(k)
		if err != nil {
			fmt.Fprintln(os.Stderr, "DYNASTIA_STATE_KEY inválida:", err)
			os.Exit(1)
		}
		stateBox = b
	}

	newStore := func() securestore.Store {
		if stateBox != nil {
			return securestore.NewEncryptedFile(statePath, stateBox)
		}
		return securestore.NewFile(statePath)
	}
	newAPI := func(store securestore.Store) *api.Client {
		return api.New(api.Config{
			BaseURL: serverURL,
			HTTP:    &http.Client{Timeout: timeout},
			Tokens:  securestore.TokenSource{Store: store},
			OnSignOut: func() {
				_ = store.ClearSession()
				fmt.Fprintln(os.Stderr, "la sesión expiró: iniciar sesión de nuevo")
			},
		})
	}
	cmdCtx := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(context.Background(), timeout)
	}

	// signup
	var signupEmail, signupPassword string
	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Crear una cuenta y guardar la sesión emitida",
		RunE: func(cmd *cobra.Command, args []string) error {
			if signupEmail == "" || signupPassword == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}
			ctx, cancel := cmdCtx()
			defer cancel()
			store := newStore()
			s, err := newAPI(store).Signup(ctx, signupEmail, signupPassword)
			if err != nil {
				return err
			}
			if err := store.SaveSession(toStored(s)); err != nil {
				return err
			}
			return printResult(out,
				map[string]any{"state": "authenticated", "userId": s.User.ID, "email": s.User.Email},
				fmt.Sprintf("cuenta creada, sesión guardada (%s)", s.User.Email))
		},
	}
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "Email de la cuenta")
	signupCmd.Flags().StringVar(&signupPassword, "password", "", "Password de la cuenta")

	// login
	var loginEmail, loginPassword, loginCode string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Iniciar sesión (con --code completa el segundo factor en el mismo paso)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginEmail == "" || loginPassword == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}
			ctx, cancel := cmdCtx()
			defer cancel()
			store := newStore()
			cl := newAPI(store)

			outcome, err := cl.Login(ctx, loginEmail, loginPassword)
			if err != nil {
				return err
			}
			sess := outcome.Session
			if outcome.SecondFactor != nil {
				if loginCode == "" {
					return printResult(out,
						map[string]any{"requires2FA": true, "userId": outcome.SecondFactor.UserID},
						fmt.Sprintf("segundo factor requerido: reintentar con --code, o correr\n  dynastia 2fa verify --user %s --code <código>", outcome.SecondFactor.UserID))
				}
				sess, err = cl.VerifySecondFactor(ctx, outcome.SecondFactor.UserID, loginCode)
				if err != nil {
					return err
				}
			}
			if err := store.SaveSession(toStored(sess)); err != nil {
				return err
			}
			return printResult(out,
				map[string]any{"state": "authenticated", "userId": sess.User.ID, "email": sess.User.Email},
				fmt.Sprintf("sesión iniciada (%s)", sess.User.Email))
		},
	}
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email de la cuenta")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password de la cuenta")
	loginCmd.Flags().StringVar(&loginCode, "code", "", "Código TOTP si la cuenta tiene 2FA")

	// 2fa enable|verify|disable
	twofaCmd := &cobra.Command{Use: "2fa", Short: "Segundo factor TOTP"}

	enableCmd := &cobra.Command{
		Use:   "enable",
		Short: "Enrolar TOTP para la sesión actual",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdCtx()
			defer cancel()
			e, err := newAPI(newStore()).EnableTOTP(ctx)
			if err != nil {
				return err
			}
			return printResult(out,
				map[string]any{"secret": e.Secret, "provisioningURI": e.ProvisioningURI},
				fmt.Sprintf("secret: %s\nuri:    %s\ncargar el secret en la app TOTP y confirmar con: dynastia 2fa verify", e.Secret, e.ProvisioningURI))
		},
	}

	var verifyUser, verifyCode string
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verificar un código TOTP y guardar la sesión emitida",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verifyCode == "" {
				return fmt.Errorf("--code es requerido")
			}
			ctx, cancel := cmdCtx()
			defer cancel()
			store := newStore()
			userID := verifyUser
			if userID == "" {
				// Sin --user se usa la sesión guardada (el caso "confirmar
				// el enrolamiento recién hecho").
				s, err := store.LoadSession()
				if err != nil {
					return err
				}
				if s == nil {
					return fmt.Errorf("--user es requerido (no hay sesión guardada)")
				}
				userID = s.UserID
			}
			sess, err := newAPI(store).VerifySecondFactor(ctx, userID, verifyCode)
			if err != nil {
				return err
			}
			if err := store.SaveSession(toStored(sess)); err != nil {
				return err
			}
			return printResult(out,
				map[string]any{"state": "authenticated", "userId": sess.User.ID, "email": sess.User.Email},
				fmt.Sprintf("código verificado, sesión guardada (%s)", sess.User.Email))
		},
	}
	verifyCmd.Flags().StringVar(&verifyUser, "user", "", "userId pendiente devuelto por login")
	verifyCmd.Flags().StringVar(&verifyCode, "code", "", "Código TOTP de 6 dígitos")

	disableCmd := &cobra.Command{
		Use:   "disable",
		Short: "Deshabilitar TOTP para la sesión actual",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdCtx()
			defer cancel()
			d, err := newAPI(newStore()).DisableTOTP(ctx)
			if err != nil {
				return err
			}
			return printResult(out, map[string]any{"message": d.Message}, d.Message)
		},
	}

	twofaCmd.AddCommand(enableCmd)
	twofaCmd.AddCommand(verifyCmd)
	twofaCmd.AddCommand(disableCmd)

	// refresh
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Renovar el access token de la sesión guardada",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdCtx()
			defer cancel()
			store := newStore()
			s, err := store.LoadSession()
			if err != nil {
				return err
			}
			if s == nil {
				return fmt.Errorf("no hay sesión guardada")
			}
			r, err := newAPI(store).Refresh(ctx, s.RefreshToken)
			if err != nil {
				return err
			}
			s.AccessToken = r.AccessToken
			if err := store.SaveSession(*s); err != nil {
				return err
			}
			return printResult(out, map[string]any{"refreshed": true}, "access token renovado")
		},
	}

	// status
	var statusBiometric string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Correr la restauración de arranque y mostrar el estado resultante",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdCtx()
			defer cancel()
			m := session.New(session.Config{
				ServerURL: serverURL,
				HTTP:      &http.Client{Timeout: timeout},
				Store:     newStore(),
				Device:    deviceFor(statusBiometric),
			})
			runCtx, stop := context.WithCancel(context.Background())
			defer stop()
			go m.Run(runCtx)

			snaps := m.Subscribe()
			for {
				select {
				case snap := <-snaps:
					if snap.State == session.StateLoading {
						continue
					}
					text := fmt.Sprintf("estado: %s", snap.State)
					if snap.State == session.StateAuthenticated {
						text = fmt.Sprintf("estado: %s (%s)", snap.State, snap.Email)
					}
					return printResult(out,
						map[string]any{"state": string(snap.State), "userId": snap.UserID, "email": snap.Email},
						text)
				case <-ctx.Done():
					return fmt.Errorf("timeout esperando la restauración")
				}
			}
		},
	}
	statusCmd.Flags().StringVar(&statusBiometric, "biometric", "none", "Sensor simulado: ok|fail|none")

	// biometric on|off
	biometricCmd := &cobra.Command{Use: "biometric", Short: "Consentimiento de desbloqueo biométrico"}
	biometricOn := &cobra.Command{
		Use:   "on",
		Short: "Habilitar el desbloqueo biométrico para la sesión guardada",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := biometric.NewGate(newStore(), biometric.None()).SetEnabled(true); err != nil {
				return err
			}
			return printResult(out, map[string]any{"biometric": true}, "desbloqueo biométrico habilitado")
		},
	}
	biometricOff := &cobra.Command{
		Use:   "off",
		Short: "Deshabilitar el desbloqueo biométrico para la sesión guardada",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := biometric.NewGate(newStore(), biometric.None()).SetEnabled(false); err != nil {
				return err
			}
			return printResult(out, map[string]any{"biometric": false}, "desbloqueo biométrico deshabilitado")
		},
	}
	biometricCmd.AddCommand(biometricOn)
	biometricCmd.AddCommand(biometricOff)

	// signout
	signoutCmd := &cobra.Command{
		Use:   "signout",
		Short: "Borrar la sesión local",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newStore().ClearSession(); err != nil {
				return err
			}
			// Solo local: no hay revocación en el servidor, los tokens
			// emitidos siguen vigentes hasta vencer.
			return printResult(out, map[string]any{"state": "signed_out"}, "sesión cerrada (local)")
		},
	}

	root.AddCommand(signupCmd)
	root.AddCommand(loginCmd)
	root.AddCommand(twofaCmd)
	root.AddCommand(refreshCmd)
	root.AddCommand(statusCmd)
	root.AddCommand(biometricCmd)
	root.AddCommand(signoutCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// ─── Helpers ───

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dynastia-state.json"
	}
	return filepath.Join(home, ".dynastia", "state.json")
}

func deviceFor(mode string) biometric.Device {
	switch mode {
	case "ok":
		return biometric.StaticDevice{Hardware: true, Enrollment: true, Approve: true}
	case "fail":
		return biometric.StaticDevice{Hardware: true, Enrollment: true, Approve: false}
	default:
		return biometric.None()
	}
}

func toStored(s *dto.SessionResponse) securestore.Session {
	return securestore.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		UserID:       s.User.ID,
		Email:        s.User.Email,
	}
}

func printResult(format string, v map[string]any, text string) error {
	if format == "json" {
		p, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(p))
		return nil
	}
	fmt.Println(text)
	return nil
}
