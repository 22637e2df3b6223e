// Package announce speaks drawn numbers. A Resolver walks a fixed chain of
// strategies for each number: a cached clip, a clip fetched from the clip
// source, live speech synthesis and finally a short tone. Results for a draw
// that is no longer the latest are dropped before anything is played.
package announce
