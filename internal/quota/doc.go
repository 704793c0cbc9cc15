// Package quota counts an anonymous visitor's completed assistant turns
// against a fixed free budget. The counter persists across restarts, only
// ever grows, and is simply no longer consulted once the user signs in.
package quota
