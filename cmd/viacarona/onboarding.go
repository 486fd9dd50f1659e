package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"viacarona/internal/gateway"
	"viacarona/internal/onboarding/flow"
	"viacarona/internal/onboarding/models"
	dErrors "viacarona/pkg/domain-errors"
)

// driver walks the machine from the terminal until it reaches a view the
// command does not handle.
type driver struct {
	rt  *clientRuntime
	p   *prompter
	out io.Writer
}

func withDriver(cmd *cobra.Command, run func(ctx context.Context, d *driver) error) error {
	ctx := cmd.Context()
	rt, err := newClientRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.logger.Warn("close token store", "error", err)
		}
	}()
	return run(ctx, &driver{rt: rt, p: newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), out: cmd.OutOrStdout()})
}

func (d *driver) report(out flow.Outcome) {
	if out.Message == "" {
		return
	}
	if out.Field != "" {
		fmt.Fprintf(d.out, "%s: %s\n", out.Field, out.Message)
		return
	}
	fmt.Fprintln(d.out, out.Message)
}

// settle waits out a delayed transition; immediate ones have already been
// applied by the machine.
func (d *driver) settle(ctx context.Context, out flow.Outcome) error {
	if out.Transition == nil || out.Transition.Delay == 0 {
		d.rt.nav.drain()
		return nil
	}
	fmt.Fprintf(d.out, "Redirecionando em %s...\n", out.Transition.Delay)
	_, err := d.rt.nav.next(ctx)
	return err
}

// resume continues from whatever view the machine is on.
func (d *driver) resume(ctx context.Context) error {
	for {
		switch d.rt.machine.View() {
		case models.ViewVerifyEmail:
			if err := d.verify(ctx); err != nil {
				return err
			}
		case models.ViewCompleteProfile:
			if err := d.completeProfile(ctx); err != nil {
				return err
			}
		case models.ViewHome:
			p := d.rt.machine.Params()
			fmt.Fprintf(d.out, "Bem-vindo(a), %s! Sessão salva.\n", orEmail(p.Name, p.Email))
			return nil
		default:
			return nil
		}
	}
}

func (d *driver) verify(ctx context.Context) error {
	m := d.rt.machine
	fmt.Fprintf(d.out, "Enviamos um código de 6 dígitos para %s.\n", m.Email())
	for m.View() == models.ViewVerifyEmail {
		code := strings.TrimSpace(d.p.ask("Código (r para reenviar)"))
		if d.p.err != nil {
			return d.p.err
		}

		var (
			out flow.Outcome
			err error
		)
		if strings.EqualFold(code, "r") {
			out, err = m.ResendCode(ctx)
			if dErrors.HasCode(err, dErrors.CodeBusy) || dErrors.HasCode(err, dErrors.CodeLimitReached) {
				snap, _ := m.Cooldown()
				fmt.Fprintf(d.out, "%s (%s)\n", snap.Label, snap.Countdown)
				continue
			}
		} else {
			out, err = m.VerifyEmail(ctx, code)
		}
		if err != nil {
			return err
		}
		d.report(out)
		if err := d.settle(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

func (d *driver) completeProfile(ctx context.Context) error {
	m := d.rt.machine
	if d.rt.cfg.Locality.BaseURL != "" {
		m.SetKnownStateCodes(d.rt.locality.KnownStateCodes(ctx))
	}
	for m.View() == models.ViewCompleteProfile {
		form := flow.ProfileForm{
			Phone:      d.p.ask("Telefone"),
			BirthDate:  d.p.ask("Data de nascimento (DD/MM/AAAA)"),
			Gender:     d.p.ask("Gênero (M/F/O)"),
			NationalID: d.p.ask("CPF"),
			StateCode:  d.p.ask("UF"),
			City:       d.p.ask("Cidade"),
		}
		photoPath := strings.TrimSpace(d.p.ask("Foto (caminho, opcional)"))
		if d.p.err != nil {
			return d.p.err
		}

		out, err := d.submitProfile(ctx, form, photoPath)
		if err != nil {
			return err
		}
		d.report(out)
		if err := d.settle(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

func (d *driver) submitProfile(ctx context.Context, form flow.ProfileForm, photoPath string) (flow.Outcome, error) {
	if photoPath == "" {
		return d.rt.machine.CompleteProfile(ctx, form)
	}
	f, err := os.Open(photoPath)
	if err != nil {
		return flow.Outcome{}, fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	form.Photo = &gateway.Photo{
		Name:        filepath.Base(photoPath),
		ContentType: mime.TypeByExtension(filepath.Ext(photoPath)),
		Body:        f,
	}
	form.PhotoURI = photoPath
	return d.rt.machine.CompleteProfile(ctx, form)
}

// NewSignupCmd creates the signup subcommand.
func NewSignupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account, verify the email and complete the profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDriver(cmd, func(ctx context.Context, d *driver) error {
				m := d.rt.machine
				if err := m.Open(models.ViewRegister); err != nil {
					return err
				}
				for m.View() == models.ViewRegister {
					form := flow.RegistrationForm{
						Name:            d.p.ask("Nome"),
						Username:        d.p.ask("Username"),
						Email:           d.p.ask("Email"),
						Password:        d.p.ask("Senha"),
						ConfirmPassword: d.p.ask("Confirme a senha"),
					}
					if d.p.err != nil {
						return d.p.err
					}
					out, err := m.Register(ctx, form)
					if err != nil {
						return err
					}
					d.report(out)
				}
				return d.resume(ctx)
			})
		},
	}
}

// NewLoginCmd creates the login subcommand.
func NewLoginCmd() *cobra.Command {
	var email, idToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password or a Google id token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDriver(cmd, func(ctx context.Context, d *driver) error {
				m := d.rt.machine
				if err := m.Open(models.ViewLogin); err != nil {
					return err
				}

				var (
					out flow.Outcome
					err error
				)
				if idToken != "" {
					out, err = m.SocialSignIn(ctx, idToken)
				} else {
					if email == "" {
						email = d.p.ask("Email")
					}
					password := d.p.ask("Senha")
					if d.p.err != nil {
						return d.p.err
					}
					out, err = m.Login(ctx, email, password)
				}
				if err != nil {
					return err
				}
				d.report(out)
				if err := stepFailed(out); err != nil {
					return err
				}
				if err := d.settle(ctx, out); err != nil {
					return err
				}
				return d.resume(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	cmd.Flags().StringVar(&idToken, "google-id-token", "", "sign in with a Google id token instead of a password")

	return cmd
}

// NewForgotPasswordCmd creates the forgot-password subcommand.
func NewForgotPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDriver(cmd, func(ctx context.Context, d *driver) error {
				if err := d.rt.machine.Open(models.ViewForgotPassword); err != nil {
					return err
				}
				if email == "" {
					email = d.p.ask("Email")
				}
				if d.p.err != nil {
					return d.p.err
				}
				out, err := d.rt.machine.RequestPasswordReset(ctx, email)
				if err != nil {
					return err
				}
				d.report(out)
				return stepFailed(out)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")

	return cmd
}

// NewResetPasswordCmd creates the reset-password subcommand.
func NewResetPasswordCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the token from the reset email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDriver(cmd, func(ctx context.Context, d *driver) error {
				if err := d.rt.machine.Open(models.ViewResetPassword); err != nil {
					return err
				}
				password := d.p.ask("Nova senha")
				confirm := d.p.ask("Confirme a nova senha")
				if d.p.err != nil {
					return d.p.err
				}
				out, err := d.rt.machine.ResetPassword(ctx, token, password, confirm)
				if err != nil {
					return err
				}
				d.report(out)
				return stepFailed(out)
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "reset token from the email")

	return cmd
}

var errStepFailed = errors.New("step failed")

// stepFailed turns an outcome that ends the command into an error.
func stepFailed(out flow.Outcome) error {
	switch out.Result {
	case flow.ResultSuccess, flow.ResultRedirect:
		return nil
	}
	return fmt.Errorf("%s: %w", out.Step, errStepFailed)
}

func orEmail(name, email string) string {
	if name != "" {
		return name
	}
	return email
}
